package plans

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/JaimeStill/haccp/internal/hazards"
	"github.com/JaimeStill/haccp/pkg/query"
	"github.com/JaimeStill/haccp/pkg/repository"
)

const hazardStats = `LEFT JOIN (
	SELECT plan_id,
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE classification = 'CCP') AS ccp,
		COUNT(*) FILTER (WHERE classification = 'OPRP') AS oprp,
		COUNT(*) FILTER (WHERE classification = 'PRP') AS prp,
		COUNT(*) FILTER (WHERE classification = 'INDETERMINATE') AS indeterminate
	FROM public.hazards
	GROUP BY plan_id
) s ON s.plan_id = p.id`

var projection = query.
	NewProjectionMap("public", "plans", "p").
	Project("id", "id").
	Project("name", "name").
	Project("description", "description").
	ProjectExpr("COALESCE(s.total, 0)", "hazard_count").
	ProjectExpr("COALESCE(s.ccp, 0)", "ccp_count").
	ProjectExpr("COALESCE(s.oprp, 0)", "oprp_count").
	ProjectExpr("COALESCE(s.prp, 0)", "prp_count").
	ProjectExpr("COALESCE(s.indeterminate, 0)", "indeterminate_count").
	Project("created_at", "created_at").
	Project("updated_at", "updated_at").
	Project("updated_by", "updated_by").
	Join(hazardStats)

var defaultSort = query.SortField{
	Field:      "updated_at",
	Descending: true,
}

// answerColumns maps each decision-tree question to its hazards column.
var answerColumns = map[hazards.Question]string{
	hazards.Q1: "q1",
	hazards.Q2: "q2",
	hazards.Q3: "q3",
	hazards.Q4: "q4",
}

const hazardColumns = `hazard_id, position, description, step, category,
	q1, q2, q3, q4, classification, updated_at, updated_by`

// Filters contains optional filtering criteria for plan queries.
// Nil fields are ignored. Name and UpdatedBy use case-insensitive contains
// matching. Complete selects plans with no indeterminate hazards (true) or
// with at least one (false). HasCCP selects plans with (true) or without
// (false) a critical control point.
type Filters struct {
	Name      *string `json:"name,omitempty"`
	UpdatedBy *string `json:"updated_by,omitempty"`
	Complete  *bool   `json:"complete,omitempty"`
	HasCCP    *bool   `json:"has_ccp,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.WhereContains("name", f.Name).
		WhereContains("updated_by", f.UpdatedBy)

	if f.Complete != nil {
		if *f.Complete {
			b.Where("indeterminate_count", "=", 0)
		} else {
			b.Where("indeterminate_count", ">", 0)
		}
	}
	if f.HasCCP != nil {
		if *f.HasCCP {
			b.Where("ccp_count", ">", 0)
		} else {
			b.Where("ccp_count", "=", 0)
		}
	}
	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}
	if u := values.Get("updated_by"); u != "" {
		f.UpdatedBy = &u
	}
	if c := values.Get("complete"); c != "" {
		if v, err := strconv.ParseBool(c); err == nil {
			f.Complete = &v
		}
	}
	if c := values.Get("has_ccp"); c != "" {
		if v, err := strconv.ParseBool(c); err == nil {
			f.HasCCP = &v
		}
	}

	return f
}

func scanPlan(s repository.Scanner) (Plan, error) {
	var p Plan
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.HazardCount,
		&p.CCPCount,
		&p.OPRPCount,
		&p.PRPCount,
		&p.IndeterminateCount,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.UpdatedBy,
	)
	p.Exportable = p.HazardCount > 0 && p.IndeterminateCount == 0
	return p, err
}

func scanHazard(s repository.Scanner) (Hazard, error) {
	var (
		h              Hazard
		q1, q2, q3, q4 string
		classification string
	)
	err := s.Scan(
		&h.HazardID,
		&h.Position,
		&h.Description,
		&h.Step,
		&h.Category,
		&q1, &q2, &q3, &q4,
		&classification,
		&h.UpdatedAt,
		&h.UpdatedBy,
	)
	if err != nil {
		return h, err
	}

	h.Answers, err = parseAnswers(q1, q2, q3, q4)
	if err != nil {
		return h, fmt.Errorf("hazard %s: %w", h.HazardID, err)
	}
	h.Classification = hazards.Classification(classification)
	return h, nil
}

func parseAnswers(values ...string) (hazards.AnswerSet, error) {
	var set hazards.AnswerSet
	for i, q := range hazards.Questions() {
		a, err := hazards.ParseAnswer(values[i])
		if err != nil {
			return set, err
		}
		set.Set(q, a)
	}
	return set, nil
}

func snapshots(hs []Hazard) []hazards.Snapshot {
	out := make([]hazards.Snapshot, len(hs))
	for i, h := range hs {
		out[i] = hazards.Snapshot{ID: h.HazardID, Answers: h.Answers}
	}
	return out
}
