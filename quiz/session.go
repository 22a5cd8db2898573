package quiz

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/AlhasanIQ/oriki/catalog"
	"github.com/AlhasanIQ/oriki/contract"
)

type Phase string

const (
	PhaseQuestion   Phase = "at_question"
	PhaseSubmitting Phase = "submitting"
	PhaseReviewing  Phase = "reviewing"
)

type Transition int

const (
	TransitionNone Transition = iota
	TransitionMoved
	TransitionSubmit
)

// Session is the quiz state machine: AtQuestion(i), Submitting, Reviewing.
// It is not safe for concurrent use; Controller serializes access.
type Session struct {
	catalog        *catalog.Catalog
	index          int
	phase          Phase
	answers        *AnswerSet
	lastSubmission *contract.GenerateRequest
	displayedMode  string
}

func NewSession(c *catalog.Catalog) *Session {
	return &Session{
		catalog: c,
		phase:   PhaseQuestion,
		answers: NewAnswerSet(),
	}
}

func (s *Session) Catalog() *catalog.Catalog { return s.catalog }

func (s *Session) Index() int { return s.index }

func (s *Session) Phase() Phase { return s.phase }

func (s *Session) Current() catalog.Question { return s.catalog.At(s.index) }

func (s *Session) IsLast() bool { return s.index == s.catalog.Len()-1 }

// Progress returns the 1-based position and the question count.
func (s *Session) Progress() (int, int) { return s.index + 1, s.catalog.Len() }

func (s *Session) Answers() *AnswerSet { return s.answers }

func (s *Session) Answer(id string) (Answer, bool) { return s.answers.Get(id) }

func (s *Session) DisplayName() string { return s.answers.DisplayName() }

// LastSubmission is a copy of the payload last sent, or nil.
func (s *Session) LastSubmission() *contract.GenerateRequest {
	if s.lastSubmission == nil {
		return nil
	}
	c := s.lastSubmission.Clone()
	return &c
}

func (s *Session) DisplayedMode() string { return s.displayedMode }

// CanAdvance is the derived next-button state for the current question.
func (s *Session) CanAdvance() bool {
	return s.phase == PhaseQuestion && IsAnswered(s.Current(), s.answers)
}

func (s *Session) CanRetreat() bool {
	return s.phase == PhaseQuestion && s.index > 0
}

// NeedsDisplayName reports whether the current question is answered with
// the name-only sentinel, so a display name must be collected.
func (s *Session) NeedsDisplayName() bool {
	q := s.Current()
	if q.Kind != catalog.KindSingleSelect {
		return false
	}
	a, ok := s.answers.Get(q.ID)
	return ok && a.Value == catalog.NameOnly
}

// Advance moves to the next question, or to Submitting from the last one.
// TransitionSubmit is returned exactly once per submission; calls outside
// AtQuestion are no-ops.
func (s *Session) Advance() (Transition, error) {
	if s.phase != PhaseQuestion {
		return TransitionNone, nil
	}
	q := s.Current()
	if !IsAnswered(q, s.answers) {
		return TransitionNone, &ValidationError{QuestionID: q.ID, Index: s.index, Message: ValidationMessage(q, s.answers)}
	}
	if s.IsLast() {
		s.phase = PhaseSubmitting
		return TransitionSubmit, nil
	}
	s.index++
	return TransitionMoved, nil
}

// Retreat moves back one question. It is a no-op at the first question.
func (s *Session) Retreat() bool {
	if !s.CanRetreat() {
		return false
	}
	s.index--
	return true
}

// GoTo jumps to question i when every earlier question is answered.
func (s *Session) GoTo(i int) error {
	if s.phase != PhaseQuestion {
		return ErrLocked
	}
	if i < 0 || i >= s.catalog.Len() {
		return fmt.Errorf("question index %d out of range", i)
	}
	for j := 0; j < i; j++ {
		q := s.catalog.At(j)
		if !IsAnswered(q, s.answers) {
			return &ValidationError{QuestionID: q.ID, Index: j, Message: ValidationMessage(q, s.answers)}
		}
	}
	s.index = i
	return nil
}

// FirstUnanswered returns the first question without a valid answer.
func (s *Session) FirstUnanswered() (*ValidationError, bool) {
	for i, q := range s.catalog.Questions() {
		if !IsAnswered(q, s.answers) {
			return &ValidationError{QuestionID: q.ID, Index: i, Message: ValidationMessage(q, s.answers)}, true
		}
	}
	return nil, false
}

// Select sets a single_select value or toggles a multi_select value. Adding
// beyond the maximum is rejected with a SelectionLimitError and the stored
// selection is left unchanged.
func (s *Session) Select(id, value string) error {
	q, err := s.editable(id)
	if err != nil {
		return err
	}
	if !q.HasOption(value) {
		return fmt.Errorf("%w %q for %s", ErrUnknownOption, value, id)
	}

	switch q.Kind {
	case catalog.KindSingleSelect:
		s.setSingle(q, value)
		return nil
	case catalog.KindMultiSelect:
		current, _ := s.answers.Get(id)
		for i, v := range current.Selected {
			if v == value {
				selected := append(current.Selected[:i:i], current.Selected[i+1:]...)
				if len(selected) == 0 {
					s.answers.remove(id)
				} else {
					s.answers.put(id, MultiAnswer(selected...))
				}
				return nil
			}
		}
		limit := maxSelections(q)
		if len(current.Selected) >= limit {
			return &SelectionLimitError{QuestionID: id, Max: limit}
		}
		s.answers.put(id, MultiAnswer(append(current.Selected, value)...))
		return nil
	default:
		return fmt.Errorf("%w: %s is %s", ErrWrongKind, id, q.Kind)
	}
}

// SetAnswer stores a whole answer. A multi_select list longer than the
// maximum is clipped to its first values and a SelectionLimitError is
// returned alongside the stored answer; free text is clipped to its maximum
// length.
func (s *Session) SetAnswer(id string, a Answer) error {
	q, err := s.editable(id)
	if err != nil {
		return err
	}
	if a.Kind == "" {
		a.Kind = q.Kind
	}
	if a.Kind != q.Kind {
		return fmt.Errorf("%w: %s is %s, got %s", ErrWrongKind, id, q.Kind, a.Kind)
	}

	switch q.Kind {
	case catalog.KindSingleSelect:
		if a.Value == "" {
			s.answers.remove(id)
			s.clearDisplayNameIfUnused()
			return nil
		}
		if !q.HasOption(a.Value) {
			return fmt.Errorf("%w %q for %s", ErrUnknownOption, a.Value, id)
		}
		s.setSingle(q, a.Value)
		return nil
	case catalog.KindMultiSelect:
		selected := make([]string, 0, len(a.Selected))
		seen := make(map[string]struct{}, len(a.Selected))
		for _, v := range a.Selected {
			if !q.HasOption(v) {
				return fmt.Errorf("%w %q for %s", ErrUnknownOption, v, id)
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			selected = append(selected, v)
		}
		var limitErr error
		if limit := maxSelections(q); len(selected) > limit {
			selected = selected[:limit]
			limitErr = &SelectionLimitError{QuestionID: id, Max: limit}
		}
		if len(selected) == 0 {
			s.answers.remove(id)
		} else {
			s.answers.put(id, MultiAnswer(selected...))
		}
		return limitErr
	default:
		return s.setText(q, a.Text)
	}
}

func (s *Session) SetText(id, text string) error {
	q, err := s.editable(id)
	if err != nil {
		return err
	}
	if q.Kind != catalog.KindFreeText {
		return fmt.Errorf("%w: %s is %s", ErrWrongKind, id, q.Kind)
	}
	return s.setText(q, text)
}

func (s *Session) setText(q catalog.Question, text string) error {
	if limit := maxLength(q); utf8.RuneCountInString(text) > limit {
		text = string([]rune(text)[:limit])
	}
	if text == "" {
		s.answers.remove(q.ID)
		return nil
	}
	s.answers.put(q.ID, TextAnswer(text))
	return nil
}

// SetDisplayName sets the name used instead of pronouns. It is ignored
// unless a question is answered with the name-only sentinel.
func (s *Session) SetDisplayName(name string) error {
	if s.phase != PhaseQuestion {
		return ErrLocked
	}
	if !s.answers.NameOnlySelected() {
		s.answers.displayName = ""
		return nil
	}
	s.answers.displayName = strings.TrimSpace(name)
	return nil
}

func (s *Session) setSingle(q catalog.Question, value string) {
	s.answers.put(q.ID, SingleAnswer(value))
	s.clearDisplayNameIfUnused()
}

func (s *Session) clearDisplayNameIfUnused() {
	if !s.answers.NameOnlySelected() {
		s.answers.displayName = ""
	}
}

func (s *Session) editable(id string) (catalog.Question, error) {
	if s.phase != PhaseQuestion {
		return catalog.Question{}, ErrLocked
	}
	q, ok := s.catalog.Get(id)
	if !ok {
		return catalog.Question{}, fmt.Errorf("%w %q", ErrUnknownQuestion, id)
	}
	return q, nil
}

// ReturnToQuiz goes from Submitting back to the last question, answers
// intact.
func (s *Session) ReturnToQuiz() {
	if s.phase == PhaseQuestion {
		return
	}
	s.phase = PhaseQuestion
	s.index = s.catalog.Len() - 1
}

// Reset returns to AtQuestion(0) with no answers, no display name and no
// stored submission.
func (s *Session) Reset() {
	s.index = 0
	s.phase = PhaseQuestion
	s.answers = NewAnswerSet()
	s.lastSubmission = nil
	s.displayedMode = ""
}

func (s *Session) recordSubmission(req contract.GenerateRequest) {
	c := req.Clone()
	s.lastSubmission = &c
	s.phase = PhaseSubmitting
}
