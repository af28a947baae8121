// Package hazards implements the hazard control point classification engine.
// It maps decision-tree answers for a food-safety hazard to the control it
// requires (CCP, OPRP, or PRP) and aggregates hazards into an analysis
// session whose completeness gates plan export.
package hazards

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Answer is a three-valued judgment for a single decision-tree question.
// The zero value is Unknown: a question that has not been answered yet.
type Answer uint8

const (
	Unknown Answer = iota
	Yes
	No
)

// String returns the canonical text form: "unknown", "yes", or "no".
// Out-of-range values report as "unknown".
func (a Answer) String() string {
	switch a {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unknown"
	}
}

// Known reports whether the answer is Yes or No.
func (a Answer) Known() bool {
	return a == Yes || a == No
}

// ParseAnswer converts boundary text into an Answer.
// Accepts yes/no/unknown and true/false, case-insensitive.
func ParseAnswer(s string) (Answer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true":
		return Yes, nil
	case "no", "false":
		return No, nil
	case "unknown":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("%w: %q", ErrInvalidAnswer, s)
}

// AnswerOf converts an optional boolean into an Answer, mapping nil to Unknown.
func AnswerOf(b *bool) Answer {
	if b == nil {
		return Unknown
	}
	if *b {
		return Yes
	}
	return No
}

func (a Answer) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Answer) UnmarshalText(text []byte) error {
	v, err := ParseAnswer(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// UnmarshalJSON accepts the text forms as JSON strings as well as JSON booleans.
// null is rejected so that an absent value is never read as a judgment.
func (a *Answer) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return fmt.Errorf("%w: null", ErrInvalidAnswer)
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*a = AnswerOf(&b)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAnswer, data)
	}
	return a.UnmarshalText([]byte(s))
}

// Question identifies one of the four decision-tree questions.
type Question string

const (
	// Q1: is a control measure required for this hazard at this step?
	Q1 Question = "q1"
	// Q2: is this step specifically designed to eliminate or reduce the hazard
	// to an acceptable level?
	Q2 Question = "q2"
	// Q3: could contamination occur at or above the acceptable level, or could
	// it increase to an unacceptable level?
	Q3 Question = "q3"
	// Q4: will a subsequent step eliminate the hazard or reduce its likelihood
	// to an acceptable level?
	Q4 Question = "q4"
)

var questions = []Question{Q1, Q2, Q3, Q4}

var prompts = map[Question]string{
	Q1: "Is a control measure required for this hazard at this step?",
	Q2: "Is this step specifically designed to eliminate or reduce the hazard to an acceptable level?",
	Q3: "Could contamination occur at or above the acceptable level, or could it increase to an unacceptable level?",
	Q4: "Will a subsequent step eliminate the hazard or reduce its likelihood to an acceptable level?",
}

// Questions returns the decision-tree questions in evaluation order.
func Questions() []Question {
	return append([]Question(nil), questions...)
}

// Prompt returns the question text shown to plan authors.
func (q Question) Prompt() string {
	return prompts[q]
}

// Valid reports whether q is one of q1..q4.
func (q Question) Valid() bool {
	_, ok := prompts[q]
	return ok
}

// ParseQuestion validates a string as a decision-tree question.
func ParseQuestion(s string) (Question, error) {
	q := Question(strings.ToLower(strings.TrimSpace(s)))
	if !q.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidQuestion, s)
	}
	return q, nil
}

// UnmarshalText validates that the decoded value is a known question.
func (q *Question) UnmarshalText(text []byte) error {
	v, err := ParseQuestion(string(text))
	if err != nil {
		return err
	}
	*q = v
	return nil
}

// AnswerSet holds the four judgments recorded for one hazard.
// When Q1 is No the remaining answers are retained for history but never
// consulted by Classify.
type AnswerSet struct {
	Q1 Answer `json:"q1"`
	Q2 Answer `json:"q2"`
	Q3 Answer `json:"q3"`
	Q4 Answer `json:"q4"`
}

// Get returns the answer recorded for q. Unrecognised questions read as Unknown.
func (s AnswerSet) Get(q Question) Answer {
	switch q {
	case Q1:
		return s.Q1
	case Q2:
		return s.Q2
	case Q3:
		return s.Q3
	case Q4:
		return s.Q4
	}
	return Unknown
}

// Set records a for q and reports whether q was recognised.
func (s *AnswerSet) Set(q Question, a Answer) bool {
	switch q {
	case Q1:
		s.Q1 = a
	case Q2:
		s.Q2 = a
	case Q3:
		s.Q3 = a
	case Q4:
		s.Q4 = a
	default:
		return false
	}
	return true
}
