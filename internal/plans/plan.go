// Package plans implements the HACCP plan domain: plans, their hazards, and
// the decision-tree answers recorded against each hazard. Every mutation
// replays the plan's hazards into a hazards.Session so classification and
// summary rules live in one place.
package plans

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/haccp/internal/hazards"
)

// Category is the kind of hazard under analysis.
type Category string

const (
	Biological Category = "biological"
	Chemical   Category = "chemical"
	Physical   Category = "physical"
	Allergen   Category = "allergen"
)

// Valid reports whether c is a recognised hazard category.
func (c Category) Valid() bool {
	switch c {
	case Biological, Chemical, Physical, Allergen:
		return true
	}
	return false
}

const maxHazardIDLength = 64

var hazardIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidHazardID reports whether id is usable as a hazard identifier.
func ValidHazardID(id string) bool {
	return len(id) <= maxHazardIDLength && hazardIDPattern.MatchString(id)
}

// Plan is a HACCP plan with aggregate classification counts.
type Plan struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	HazardCount        int       `json:"hazard_count"`
	CCPCount           int       `json:"ccp_count"`
	OPRPCount          int       `json:"oprp_count"`
	PRPCount           int       `json:"prp_count"`
	IndeterminateCount int       `json:"indeterminate_count"`
	Exportable         bool      `json:"exportable"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	UpdatedBy          string    `json:"updated_by"`
}

// Hazard is one hazard of a plan together with its recorded answers and the
// classification they yield.
type Hazard struct {
	HazardID       string                 `json:"hazard_id"`
	Position       int                    `json:"position"`
	Description    string                 `json:"description"`
	Step           string                 `json:"step"`
	Category       Category               `json:"category"`
	Answers        hazards.AnswerSet      `json:"answers"`
	Classification hazards.Classification `json:"classification"`
	UpdatedAt      time.Time              `json:"updated_at"`
	UpdatedBy      string                 `json:"updated_by"`
}

// Detail is a plan with its hazards in insertion order and its current summary.
// Session is the in-memory aggregate the summary was computed from.
type Detail struct {
	Plan
	Hazards []Hazard         `json:"hazards"`
	Summary hazards.Summary  `json:"summary"`
	Session *hazards.Session `json:"-"`
}

// Gate reports whether a plan may be exported and why not when it may not.
type Gate struct {
	Exportable bool            `json:"exportable"`
	Summary    hazards.Summary `json:"summary"`
}

// CreateCommand carries the fields for a new plan.
type CreateCommand struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate normalizes and checks the command.
func (c *CreateCommand) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return ErrInvalidPlan
	}
	return nil
}

// UpdateCommand carries optional plan field changes. Nil fields are left as is.
type UpdateCommand struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Validate normalizes and checks the command.
func (c *UpdateCommand) Validate() error {
	if c.Name != nil {
		name := strings.TrimSpace(*c.Name)
		if name == "" {
			return ErrInvalidPlan
		}
		c.Name = &name
	}
	return nil
}

// AddHazardCommand describes a hazard to append to a plan. Answers is
// optional; omitted questions start as unknown.
type AddHazardCommand struct {
	HazardID    string             `json:"hazard_id"`
	Description string             `json:"description"`
	Step        string             `json:"step"`
	Category    Category           `json:"category"`
	Answers     *hazards.AnswerSet `json:"answers,omitempty"`
}

// Validate normalizes and checks the command.
func (c *AddHazardCommand) Validate() error {
	c.HazardID = strings.TrimSpace(c.HazardID)
	if !ValidHazardID(c.HazardID) {
		return ErrInvalidHazard
	}
	if !c.Category.Valid() {
		return ErrInvalidHazard
	}
	return nil
}

// AnswerCommand records one answer against one question.
// Answer is required; send "unknown" to clear a previous judgment.
type AnswerCommand struct {
	Question hazards.Question `json:"question"`
	Answer   *hazards.Answer  `json:"answer"`
}

// Validate checks that both question and answer are present.
func (c *AnswerCommand) Validate() error {
	if !c.Question.Valid() {
		return hazards.ErrInvalidQuestion
	}
	if c.Answer == nil {
		return hazards.ErrInvalidAnswer
	}
	return nil
}

// AnswerResult is the outcome of recording an answer: the hazard's new state
// and the plan summary after the change.
type AnswerResult struct {
	Hazard  Hazard          `json:"hazard"`
	Summary hazards.Summary `json:"summary"`
}
