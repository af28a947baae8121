package plans_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/haccp/internal/hazards"
	"github.com/JaimeStill/haccp/internal/plans"
)

const salmonYAML = `
name: Cold-smoked salmon
description: Line 2
hazards:
  - id: listeria
    description: Listeria monocytogenes growth
    step: brining
    category: biological
    answers: {q1: yes, q2: no, q3: yes, q4: no}
  - id: metal
    step: slicing
    category: physical
    answers:
      q1: false
`

func TestParseDocumentYAML(t *testing.T) {
	doc, err := plans.ParseDocument(strings.NewReader(salmonYAML), "application/yaml")
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	plan, cmds, err := doc.Commands()
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}

	if plan.Name != "Cold-smoked salmon" || plan.Description != "Line 2" {
		t.Errorf("plan = %+v", plan)
	}

	want := []plans.AddHazardCommand{
		{
			HazardID:    "listeria",
			Description: "Listeria monocytogenes growth",
			Step:        "brining",
			Category:    plans.Biological,
			Answers:     &hazards.AnswerSet{Q1: hazards.Yes, Q2: hazards.No, Q3: hazards.Yes, Q4: hazards.No},
		},
		{
			HazardID: "metal",
			Step:     "slicing",
			Category: plans.Physical,
			Answers:  &hazards.AnswerSet{Q1: hazards.No},
		},
	}

	if diff := cmp.Diff(want, cmds); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}

	if got := hazards.Classify(*cmds[0].Answers); got != hazards.CCP {
		t.Errorf("listeria classification = %s, want CCP", got)
	}
}

func TestParseDocumentJSON(t *testing.T) {
	body := `{
		"name": "Peanut cookies",
		"hazards": [
			{"id": "peanut", "category": "allergen", "answers": {"q1": true, "q2": "yes"}}
		]
	}`

	doc, err := plans.ParseDocument(strings.NewReader(body), "application/json; charset=utf-8")
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	_, cmds, err := doc.Commands()
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("commands = %d, want 1", len(cmds))
	}

	want := hazards.AnswerSet{Q1: hazards.Yes, Q2: hazards.Yes}
	if diff := cmp.Diff(want, *cmds[0].Answers); diff != "" {
		t.Errorf("answers mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDocumentErrors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		want        error
	}{
		{"unsupported media", "name: x", "text/csv", plans.ErrUnsupportedMedia},
		{"empty body", "   \n", "", plans.ErrInvalidDocument},
		{"unknown field", "name: x\nowner: bob\n", "", plans.ErrInvalidDocument},
		{"null answer", "name: x\nhazards:\n  - id: a\n    category: chemical\n    answers: {q1: null}\n", "", plans.ErrInvalidDocument},
		{"tilde answer", "name: x\nhazards:\n  - id: a\n    category: chemical\n    answers: {q2: ~}\n", "", plans.ErrInvalidDocument},
		{"json null answer", `{"name": "x", "hazards": [{"id": "a", "category": "chemical", "answers": {"q1": null}}]}`, "application/json", plans.ErrInvalidDocument},
		{"unknown question", "name: x\nhazards:\n  - id: a\n    category: chemical\n    answers: {q5: yes}\n", "", plans.ErrInvalidDocument},
		{"answers not a mapping", "name: x\nhazards:\n  - id: a\n    category: chemical\n    answers: [yes]\n", "", plans.ErrInvalidDocument},
		{"bad answer", "name: x\nhazards:\n  - id: a\n    category: chemical\n    answers: {q1: maybe}\n", "", plans.ErrInvalidDocument},
		{"malformed", "name: [unterminated", "", plans.ErrInvalidDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := plans.ParseDocument(strings.NewReader(tt.body), tt.contentType)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDocumentCommandsErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  plans.Document
	}{
		{
			name: "missing name",
			doc:  plans.Document{},
		},
		{
			name: "invalid hazard id",
			doc: plans.Document{
				Name:    "x",
				Hazards: []plans.DocumentHazard{{ID: "bad id", Category: plans.Chemical}},
			},
		},
		{
			name: "invalid category",
			doc: plans.Document{
				Name:    "x",
				Hazards: []plans.DocumentHazard{{ID: "a", Category: "radiological"}},
			},
		},
		{
			name: "duplicate id",
			doc: plans.Document{
				Name: "x",
				Hazards: []plans.DocumentHazard{
					{ID: "a", Category: plans.Chemical},
					{ID: "a", Category: plans.Physical},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.doc.Commands()
			if !errors.Is(err, plans.ErrInvalidDocument) {
				t.Errorf("err = %v, want ErrInvalidDocument", err)
			}
		})
	}
}
