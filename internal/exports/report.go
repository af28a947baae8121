package exports

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/haccp/internal/hazards"
	"github.com/JaimeStill/haccp/internal/plans"
)

// Report is the render-ready view of an exportable plan. Every renderer
// works from the same Report so formats never disagree.
type Report struct {
	PlanID      uuid.UUID
	PlanName    string
	Description string
	GeneratedAt time.Time
	GeneratedBy string
	Hazards     []ReportHazard
	Summary     hazards.Summary
}

// ReportHazard is one row of the hazard analysis table.
type ReportHazard struct {
	ID             string
	Step           string
	Category       string
	Description    string
	Answers        [4]string
	Classification string
}

// NewReport builds a report from a plan detail. Answers after a q1 of "no"
// are shown as n/a since they do not affect the classification.
func NewReport(d *plans.Detail, actor string, at time.Time) *Report {
	rep := &Report{
		PlanID:      d.ID,
		PlanName:    d.Name,
		Description: d.Description,
		GeneratedAt: at.UTC(),
		GeneratedBy: actor,
		Hazards:     make([]ReportHazard, len(d.Hazards)),
		Summary:     d.Summary,
	}

	for i, h := range d.Hazards {
		row := ReportHazard{
			ID:             h.HazardID,
			Step:           h.Step,
			Category:       string(h.Category),
			Description:    h.Description,
			Classification: string(h.Classification),
		}
		for j, q := range hazards.Questions() {
			row.Answers[j] = answerLabel(h.Answers.Get(q))
			if j > 0 && h.Answers.Q1 == hazards.No {
				row.Answers[j] = "n/a"
			}
		}
		rep.Hazards[i] = row
	}

	return rep
}

// QuestionPrompts returns the decision-tree questions in report order.
func (r *Report) QuestionPrompts() []string {
	qs := hazards.Questions()
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.Prompt()
	}
	return out
}

func answerLabel(a hazards.Answer) string {
	switch a {
	case hazards.Yes:
		return "Yes"
	case hazards.No:
		return "No"
	}
	return "-"
}
