package quiz

import (
	"strings"

	"github.com/AlhasanIQ/oriki/catalog"
)

// Answer is one question's answer. Which field is meaningful depends on
// Kind: Selected for multi_select, Value for single_select, Text for
// free_text.
type Answer struct {
	Kind     catalog.Kind
	Selected []string
	Value    string
	Text     string
}

func MultiAnswer(values ...string) Answer {
	return Answer{Kind: catalog.KindMultiSelect, Selected: append([]string(nil), values...)}
}

func SingleAnswer(value string) Answer {
	return Answer{Kind: catalog.KindSingleSelect, Value: value}
}

func TextAnswer(text string) Answer {
	return Answer{Kind: catalog.KindFreeText, Text: text}
}

func (a Answer) clone() Answer {
	a.Selected = append([]string(nil), a.Selected...)
	return a
}

// Values returns the answer as a list of option values or text.
func (a Answer) Values() []string {
	switch a.Kind {
	case catalog.KindMultiSelect:
		return append([]string(nil), a.Selected...)
	case catalog.KindSingleSelect:
		if a.Value == "" {
			return nil
		}
		return []string{a.Value}
	default:
		if strings.TrimSpace(a.Text) == "" {
			return nil
		}
		return []string{a.Text}
	}
}

// AnswerSet maps question id to answer, plus the display-name side channel
// used when a question is answered with catalog.NameOnly.
type AnswerSet struct {
	byID        map[string]Answer
	displayName string
}

func NewAnswerSet() *AnswerSet {
	return &AnswerSet{byID: make(map[string]Answer)}
}

func (s *AnswerSet) Get(id string) (Answer, bool) {
	if s == nil {
		return Answer{}, false
	}
	a, ok := s.byID[id]
	if !ok {
		return Answer{}, false
	}
	return a.clone(), true
}

func (s *AnswerSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byID)
}

func (s *AnswerSet) DisplayName() string {
	if s == nil {
		return ""
	}
	return s.displayName
}

func (s *AnswerSet) put(id string, a Answer) { s.byID[id] = a.clone() }

func (s *AnswerSet) remove(id string) { delete(s.byID, id) }

// NameOnlySelected reports whether any single_select answer holds the
// name-only sentinel.
func (s *AnswerSet) NameOnlySelected() bool {
	if s == nil {
		return false
	}
	for _, a := range s.byID {
		if a.Kind == catalog.KindSingleSelect && a.Value == catalog.NameOnly {
			return true
		}
	}
	return false
}
