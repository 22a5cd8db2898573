package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AlhasanIQ/oriki/contract"
)

type fileCatalog struct {
	Version   string     `yaml:"version"`
	Questions []Question `yaml:"questions"`
}

// LoadFile reads a YAML catalog of the form
//
//	version: "1.0"
//	questions:
//	  - id: top_values
//	    kind: multi_select
//	    ...
func LoadFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) (*Catalog, error) {
	var fc fileCatalog
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(fc.Version, fc.Questions)
}

func Marshal(c *Catalog) ([]byte, error) {
	return yaml.Marshal(fileCatalog{Version: c.Version(), Questions: c.Questions()})
}

// The question service names two questions differently from the generate
// payload.
var remoteFieldAliases = map[string]string{
	"metaphor": "metaphor_archetype",
	"letter":   "free_write_letter",
}

// FromRemote converts the question service response. Questions without
// options are free text.
func FromRemote(resp contract.QuestionsResponse) (*Catalog, error) {
	questions := make([]Question, 0, len(resp.Questions))
	for _, rq := range resp.Questions {
		q := Question{
			ID:   strings.TrimSpace(rq.ID),
			Text: strings.TrimSpace(rq.Text),
		}
		if alias, ok := remoteFieldAliases[q.ID]; ok {
			q.Field = alias
		}
		switch {
		case len(rq.Options) == 0:
			q.Kind = KindFreeText
			if q.PayloadField() == "free_write_letter" {
				q.Placeholder = "Share your thoughts about how you want to impact the world and be remembered..."
			}
		case rq.IsMultiSelect:
			q.Kind = KindMultiSelect
			if rq.MaxSelections != nil {
				q.Constraints.MaxSelections = *rq.MaxSelections
			}
		default:
			q.Kind = KindSingleSelect
		}
		for _, o := range rq.Options {
			q.Options = append(q.Options, Option{Value: o.Value, Label: o.Label})
		}
		questions = append(questions, q)
	}
	if resp.TotalQuestions > 0 && resp.TotalQuestions != len(questions) {
		return nil, fmt.Errorf("question service reported %d questions, got %d", resp.TotalQuestions, len(questions))
	}
	return New(resp.Version, questions)
}
