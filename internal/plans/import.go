package plans

import (
	"bytes"
	"fmt"
	"io"
	"mime"

	"gopkg.in/yaml.v3"

	"github.com/JaimeStill/haccp/internal/hazards"
)

// Document is the import format for a complete plan. YAML and JSON share
// the same shape:
//
//	name: Cold-smoked salmon
//	description: Line 2
//	hazards:
//	  - id: listeria
//	    step: brining
//	    category: biological
//	    answers: {q1: yes, q2: no, q3: yes, q4: no}
type Document struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Hazards     []DocumentHazard `yaml:"hazards"`
}

// DocumentHazard is one hazard entry of an import document.
type DocumentHazard struct {
	ID          string          `yaml:"id"`
	Description string          `yaml:"description"`
	Step        string          `yaml:"step"`
	Category    Category        `yaml:"category"`
	Answers     DocumentAnswers `yaml:"answers"`
}

// DocumentAnswers holds the optional answers of an imported hazard.
// Omitted questions start as unknown.
type DocumentAnswers hazards.AnswerSet

// UnmarshalYAML accepts a mapping of q1..q4 to yes/no/unknown or booleans.
// A null value is rejected so that an explicit entry is never read as
// unanswered. Custom unmarshalers are not called for null nodes, so the
// check runs on the mapping rather than on each answer.
func (d *DocumentAnswers) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("answers at line %d: expected a mapping", node.Line)
	}

	set := hazards.AnswerSet(*d)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		q, err := hazards.ParseQuestion(key.Value)
		if err != nil {
			return fmt.Errorf("%w at line %d", err, key.Line)
		}
		if value.Kind != yaml.ScalarNode || value.Tag == "!!null" {
			return fmt.Errorf("%w: %s at line %d", hazards.ErrInvalidAnswer, q, value.Line)
		}

		a, err := hazards.ParseAnswer(value.Value)
		if err != nil {
			return fmt.Errorf("%w at line %d", err, value.Line)
		}
		set.Set(q, a)
	}

	*d = DocumentAnswers(set)
	return nil
}

var importMediaTypes = map[string]bool{
	"":                   true,
	"application/json":   true,
	"application/yaml":   true,
	"application/x-yaml": true,
	"text/yaml":          true,
	"text/x-yaml":        true,
}

// ParseDocument decodes a plan document. contentType selects nothing beyond
// acceptance: JSON documents are valid YAML, so one decoder serves both.
// Unknown fields are rejected.
func ParseDocument(r io.Reader, contentType string) (*Document, error) {
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil || !importMediaTypes[mt] {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, contentType)
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &doc, nil
}

// Commands validates the document and converts it into the plan and hazard
// commands that create it. Hazard ids must be unique within the document.
func (d *Document) Commands() (CreateCommand, []AddHazardCommand, error) {
	plan := CreateCommand{Name: d.Name, Description: d.Description}
	if err := plan.Validate(); err != nil {
		return plan, nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	seen := make(map[string]bool, len(d.Hazards))
	cmds := make([]AddHazardCommand, 0, len(d.Hazards))

	for i, h := range d.Hazards {
		answers := hazards.AnswerSet(h.Answers)
		cmd := AddHazardCommand{
			HazardID:    h.ID,
			Description: h.Description,
			Step:        h.Step,
			Category:    h.Category,
			Answers:     &answers,
		}
		if err := cmd.Validate(); err != nil {
			return plan, nil, fmt.Errorf("%w: hazard %d: %v", ErrInvalidDocument, i+1, err)
		}
		if seen[cmd.HazardID] {
			return plan, nil, fmt.Errorf("%w: hazard %d: duplicate id %q", ErrInvalidDocument, i+1, cmd.HazardID)
		}
		seen[cmd.HazardID] = true
		cmds = append(cmds, cmd)
	}

	return plan, cmds, nil
}
