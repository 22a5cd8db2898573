package quiz

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/AlhasanIQ/oriki/catalog"
)

var (
	ErrUnknownQuestion = errors.New("unknown question")
	ErrUnknownOption   = errors.New("unknown option")
	ErrWrongKind       = errors.New("answer kind does not match question")
	ErrLocked          = errors.New("answers are locked while a submission is in progress")
	ErrNoSubmission    = errors.New("nothing has been submitted yet")
	ErrNoResult        = errors.New("no result to narrate")
	ErrNotSubmitting   = errors.New("quiz is not ready to submit")
	ErrUnknownMode     = errors.New("unknown cultural mode")
)

// ValidationError means the current question's answer requirement is not
// met. It is recovered locally and shown as an inline notice.
type ValidationError struct {
	QuestionID string
	Index      int
	Message    string
}

func (e *ValidationError) Error() string { return e.Message }

// SelectionLimitError is the bounded-count warning for multi_select.
type SelectionLimitError struct {
	QuestionID string
	Max        int
}

func (e *SelectionLimitError) Error() string {
	return fmt.Sprintf("You can only select up to %d options.", e.Max)
}

// IsAnswered reports whether q has a minimally valid answer in answers.
// It never fails; missing data is simply unanswered.
func IsAnswered(q catalog.Question, answers *AnswerSet) bool {
	a, ok := answers.Get(q.ID)
	if !ok {
		return false
	}
	switch q.Kind {
	case catalog.KindMultiSelect:
		return len(a.Selected) > 0
	case catalog.KindSingleSelect:
		if a.Value == "" {
			return false
		}
		if a.Value == catalog.NameOnly {
			return strings.TrimSpace(answers.DisplayName()) != ""
		}
		return true
	case catalog.KindFreeText:
		return utf8.RuneCountInString(strings.TrimSpace(a.Text)) >= minLength(q)
	default:
		return false
	}
}

// ValidationMessage is the notice shown when q is not answered.
func ValidationMessage(q catalog.Question, answers *AnswerSet) string {
	switch q.Kind {
	case catalog.KindMultiSelect:
		return "Please select at least one option."
	case catalog.KindSingleSelect:
		if a, ok := answers.Get(q.ID); ok && a.Value == catalog.NameOnly {
			return "Please enter the name to celebrate."
		}
		return "Please select an option."
	case catalog.KindFreeText:
		return fmt.Sprintf("Please write at least %d characters.", minLength(q))
	default:
		return "Please answer this question."
	}
}

func minLength(q catalog.Question) int {
	if q.Constraints.MinLength > 0 {
		return q.Constraints.MinLength
	}
	return catalog.DefaultMinLength
}

func maxLength(q catalog.Question) int {
	if q.Constraints.MaxLength > 0 {
		return q.Constraints.MaxLength
	}
	return catalog.DefaultMaxLength
}

func maxSelections(q catalog.Question) int {
	if q.Constraints.MaxSelections > 0 {
		return q.Constraints.MaxSelections
	}
	return catalog.DefaultMaxSelections
}
