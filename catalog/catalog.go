package catalog

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindMultiSelect  Kind = "multi_select"
	KindSingleSelect Kind = "single_select"
	KindFreeText     Kind = "free_text"
)

const (
	DefaultMaxSelections = 3
	DefaultMaxLength     = 2000
	DefaultMinLength     = 10

	// NameOnly is the single_select value that asks for a display name
	// instead of pronouns.
	NameOnly = "name_only"
)

type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

type Constraints struct {
	MaxSelections int `yaml:"max_selections,omitempty" json:"max_selections,omitempty"`
	MaxLength     int `yaml:"max_length,omitempty" json:"max_length,omitempty"`
	MinLength     int `yaml:"min_length,omitempty" json:"min_length,omitempty"`
}

type Question struct {
	ID          string      `yaml:"id" json:"id"`
	Field       string      `yaml:"field,omitempty" json:"field,omitempty"`
	Kind        Kind        `yaml:"kind" json:"kind"`
	Text        string      `yaml:"text" json:"text"`
	Constraints Constraints `yaml:"constraints,omitempty" json:"constraints,omitempty"`
	Options     []Option    `yaml:"options,omitempty" json:"options,omitempty"`
	Placeholder string      `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
}

// PayloadField is the generate-request field this question fills.
func (q Question) PayloadField() string {
	if f := strings.TrimSpace(q.Field); f != "" {
		return f
	}
	return q.ID
}

func (q Question) HasOption(value string) bool {
	_, ok := q.Option(value)
	return ok
}

func (q Question) Option(value string) (Option, bool) {
	for _, o := range q.Options {
		if o.Value == value {
			return o, true
		}
	}
	return Option{}, false
}

// Label returns the display label for value, falling back to the value.
func (q Question) Label(value string) string {
	if o, ok := q.Option(value); ok && o.Label != "" {
		return o.Label
	}
	return value
}

// Catalog is an ordered, validated, read-only list of questions.
type Catalog struct {
	version   string
	questions []Question
	byID      map[string]int
}

// New validates questions and fills constraint defaults. A catalog that
// breaks any structural rule is rejected.
func New(version string, questions []Question) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("catalog has no questions")
	}

	c := &Catalog{
		version:   strings.TrimSpace(version),
		questions: make([]Question, 0, len(questions)),
		byID:      make(map[string]int, len(questions)),
	}
	for i, q := range questions {
		q.ID = strings.TrimSpace(q.ID)
		if q.ID == "" {
			return nil, fmt.Errorf("question %d: missing id", i+1)
		}
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		normalized, err := normalizeQuestion(q)
		if err != nil {
			return nil, fmt.Errorf("question %q: %w", q.ID, err)
		}
		c.byID[q.ID] = len(c.questions)
		c.questions = append(c.questions, normalized)
	}
	return c, nil
}

func normalizeQuestion(q Question) (Question, error) {
	q.Options = append([]Option(nil), q.Options...)
	switch q.Kind {
	case KindMultiSelect, KindSingleSelect:
		if len(q.Options) == 0 {
			return q, fmt.Errorf("%s question needs options", q.Kind)
		}
		seen := make(map[string]struct{}, len(q.Options))
		for i := range q.Options {
			v := strings.TrimSpace(q.Options[i].Value)
			if v == "" {
				return q, fmt.Errorf("option %d: empty value", i+1)
			}
			if _, dup := seen[v]; dup {
				return q, fmt.Errorf("duplicate option value %q", v)
			}
			seen[v] = struct{}{}
			q.Options[i].Value = v
			if strings.TrimSpace(q.Options[i].Label) == "" {
				q.Options[i].Label = v
			}
		}
		if q.Kind == KindMultiSelect {
			if q.Constraints.MaxSelections < 0 {
				return q, fmt.Errorf("max_selections must be >= 0")
			}
			if q.Constraints.MaxSelections == 0 {
				q.Constraints.MaxSelections = DefaultMaxSelections
			}
			if q.Constraints.MaxSelections > len(q.Options) {
				q.Constraints.MaxSelections = len(q.Options)
			}
		}
	case KindFreeText:
		if len(q.Options) != 0 {
			return q, fmt.Errorf("free_text question cannot have options")
		}
		if q.Constraints.MaxLength <= 0 {
			q.Constraints.MaxLength = DefaultMaxLength
		}
		if q.Constraints.MinLength <= 0 {
			q.Constraints.MinLength = DefaultMinLength
		}
		if q.Constraints.MinLength > q.Constraints.MaxLength {
			return q, fmt.Errorf("min_length %d exceeds max_length %d", q.Constraints.MinLength, q.Constraints.MaxLength)
		}
	default:
		return q, fmt.Errorf("unknown kind %q", q.Kind)
	}
	return q, nil
}

func (c *Catalog) Version() string { return c.version }

func (c *Catalog) Len() int { return len(c.questions) }

// At returns the question at index i. It panics on an out-of-range index.
func (c *Catalog) At(i int) Question { return c.questions[i] }

func (c *Catalog) Get(id string) (Question, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Question{}, false
	}
	return c.questions[i], true
}

// Questions returns a copy of the ordered question list.
func (c *Catalog) Questions() []Question {
	return append([]Question(nil), c.questions...)
}

// ByField returns the first question that fills the given payload field.
func (c *Catalog) ByField(field string) (Question, bool) {
	for _, q := range c.questions {
		if q.PayloadField() == field {
			return q, true
		}
	}
	return Question{}, false
}
