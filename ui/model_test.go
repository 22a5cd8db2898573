package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlhasanIQ/oriki/catalog"
	"github.com/AlhasanIQ/oriki/contract"
	"github.com/AlhasanIQ/oriki/quiz"
	"github.com/AlhasanIQ/oriki/submission"
)

type fakeService struct {
	mu    sync.Mutex
	modes []string
	err   error
}

func (f *fakeService) Generate(_ context.Context, req contract.GenerateRequest) (contract.GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modes = append(f.modes, req.CulturalMode)
	if f.err != nil {
		return contract.GenerateResponse{}, f.err
	}
	return contract.GenerateResponse{
		Poem:         &contract.Poem{PoemLines: []string{"Child of the " + req.CulturalMode + " dawn"}, CulturalMode: req.CulturalMode},
		Affirmations: &contract.Affirmations{Affirmations: []string{"I am steady."}},
	}, nil
}

func (f *fakeService) Audio(context.Context, contract.AudioRequest) (contract.AudioResponse, error) {
	return contract.AudioResponse{AudioBase64: "SUQz", DurationSeconds: 2}, nil
}

func newTestModel(t *testing.T, svc *fakeService) (Model, *quiz.Controller) {
	t.Helper()
	ctrl, err := quiz.NewController(quiz.Deps{
		Catalog:  catalog.Default(),
		Pipeline: submission.NewPipeline(svc, submission.Options{}),
		Audio:    submission.NewAudioPipeline(svc, submission.AudioOptions{}),
	})
	require.NoError(t, err)
	return New(context.Background(), ctrl, Options{GlamourStyle: "notty", AudioPath: t.TempDir() + "/a.mp3"}), ctrl
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(Model)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

// await runs cmd, fanning out batches, and returns the first message of
// type T.
func await[T tea.Msg](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	require.NotNil(t, cmd)
	found := make(chan T, 1)
	var run func(tea.Cmd)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			for _, sub := range msg {
				go run(sub)
			}
		case T:
			select {
			case found <- msg:
			default:
			}
		}
	}
	go run(cmd)
	select {
	case msg := <-found:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("expected message was not produced")
	}
	var zero T
	return zero
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

// toLastQuestion answers everything through the controller and moves the
// model onto the free-text question.
func toLastQuestion(t *testing.T, m Model, ctrl *quiz.Controller) Model {
	t.Helper()
	require.NoError(t, ctrl.Select("top_values", "courage"))
	require.NoError(t, ctrl.Select("cultural_mode", "secular"))
	require.NoError(t, ctrl.Select("pronouns", "she_her"))
	require.NoError(t, ctrl.Select("greatest_strength", "patience"))
	require.NoError(t, ctrl.Select("aspirational_trait", "joy"))
	require.NoError(t, ctrl.Select("metaphor_archetype", "tree"))
	require.NoError(t, ctrl.Select("energy_style", "sage"))
	require.NoError(t, ctrl.Select("life_focus", "career"))
	require.NoError(t, ctrl.GoTo(8))
	m.screen = screenQuestion
	return m.enterQuestion()
}

func TestWelcomeStartsFirstQuestion(t *testing.T) {
	m, _ := newTestModel(t, &fakeService{})
	assert.Contains(t, m.View(), "begin")

	m, _ = press(t, m, enter)
	assert.Equal(t, screenQuestion, m.screen)
	assert.Contains(t, m.View(), "Question 1 of 9")
	assert.Contains(t, m.View(), "Select your top 3 core values:")
}

func TestUnansweredQuestionShowsDismissibleNotice(t *testing.T) {
	m, _ := newTestModel(t, &fakeService{})
	m, _ = press(t, m, enter)

	m, cmd := press(t, m, enter)
	require.NotNil(t, cmd)
	assert.Equal(t, "Please select at least one option.", m.notice)
	assert.Contains(t, m.View(), "Please select at least one option.")

	m = update(m, dismissNoticeMsg(m.noticeSeq))
	assert.Empty(t, m.notice)
}

func TestStaleDismissKeepsNewerNotice(t *testing.T) {
	m, _ := newTestModel(t, &fakeService{})
	m, _ = press(t, m, enter, enter)
	first := m.noticeSeq
	m, _ = press(t, m, enter)

	m = update(m, dismissNoticeMsg(first))
	assert.NotEmpty(t, m.notice)
}

func TestMultiSelectLimitNotice(t *testing.T) {
	m, ctrl := newTestModel(t, &fakeService{})
	m, _ = press(t, m, enter)

	m, _ = press(t, m, space, down, space, down, space, down, space)
	assert.Equal(t, "You can only select up to 3 options.", m.notice)
	a, _ := ctrl.Answer("top_values")
	assert.Equal(t, []string{"integrity", "creativity", "family"}, a.Selected)

	m, _ = press(t, m, enter)
	assert.Equal(t, 1, ctrl.Index())
	m, _ = press(t, m, esc)
	assert.Equal(t, 0, ctrl.Index())
}

func TestNameOnlyCollectsDisplayName(t *testing.T) {
	m, ctrl := newTestModel(t, &fakeService{})
	require.NoError(t, ctrl.Select("top_values", "courage"))
	require.NoError(t, ctrl.Select("cultural_mode", "secular"))
	require.NoError(t, ctrl.GoTo(2))
	m.screen = screenQuestion
	m = m.enterQuestion()

	m, _ = press(t, m, down, down, down, enter)
	assert.True(t, m.name.Focused())
	assert.Equal(t, 2, ctrl.Index())

	m, _ = press(t, m, runes("Ade"), enter)
	assert.Equal(t, "Ade", ctrl.DisplayName())
	assert.Equal(t, 3, ctrl.Index())
}

func TestSubmitFlowRendersResult(t *testing.T) {
	svc := &fakeService{}
	m, ctrl := newTestModel(t, svc)
	m = toLastQuestion(t, m, ctrl)

	m, _ = press(t, m, runes("Let my words be gentle and brave."))
	assert.Contains(t, m.View(), "33/2000")

	m, cmd := press(t, m, enter)
	assert.Equal(t, screenSubmitting, m.screen)

	m = update(m, pipelineEventMsg(submission.EventSlow))
	assert.Contains(t, m.View(), "taking longer than usual")

	done := await[submitDoneMsg](t, cmd)
	m = update(m, done)
	assert.Equal(t, screenResults, m.screen)
	assert.Contains(t, m.View(), "Child of the secular dawn")
	assert.Contains(t, m.View(), "I am steady.")
}

func TestTraditionKeySwitchesMode(t *testing.T) {
	svc := &fakeService{}
	m, ctrl := newTestModel(t, svc)
	m = toLastQuestion(t, m, ctrl)
	m, cmd := press(t, m, runes("Let my words be gentle and brave."), enter)
	m = update(m, await[submitDoneMsg](t, cmd))

	// "2" is the currently displayed secular mode
	m, cmd = press(t, m, runes("2"))
	assert.Nil(t, cmd)
	assert.Equal(t, screenResults, m.screen)

	m, cmd = press(t, m, runes("3"))
	assert.Equal(t, screenSubmitting, m.screen)
	m = update(m, await[submitDoneMsg](t, cmd))
	assert.Equal(t, screenResults, m.screen)
	assert.Contains(t, m.View(), "Child of the turkish dawn")

	svc.mu.Lock()
	assert.Equal(t, []string{"secular", "turkish"}, svc.modes)
	svc.mu.Unlock()
}

func TestFailureOffersRetryAndBack(t *testing.T) {
	svc := &fakeService{err: context.DeadlineExceeded}
	m, ctrl := newTestModel(t, svc)
	m = toLastQuestion(t, m, ctrl)
	m, cmd := press(t, m, runes("Let my words be gentle and brave."), enter)

	m = update(m, await[submitDoneMsg](t, cmd))
	assert.Equal(t, screenFailed, m.screen)
	assert.Contains(t, m.View(), submission.NetworkMessage)

	m, _ = press(t, m, runes("b"))
	assert.Equal(t, screenQuestion, m.screen)
	assert.Equal(t, quiz.PhaseQuestion, ctrl.Phase())
	assert.Equal(t, 8, ctrl.Index())
	assert.Equal(t, "Let my words be gentle and brave.", m.letter.Value())
}

func TestAudioGenerateAndSave(t *testing.T) {
	m, ctrl := newTestModel(t, &fakeService{})
	m = toLastQuestion(t, m, ctrl)
	m, cmd := press(t, m, runes("Let my words be gentle and brave."), enter)
	m = update(m, await[submitDoneMsg](t, cmd))

	m, cmd = press(t, m, runes("a"))
	m = update(m, await[audioDoneMsg](t, cmd))
	assert.Contains(t, m.View(), "Audio ready")

	m, _ = press(t, m, runes("s"))
	assert.Contains(t, m.notice, "Saved audio to")
}

func TestRestartReturnsToFirstQuestion(t *testing.T) {
	m, ctrl := newTestModel(t, &fakeService{})
	m = toLastQuestion(t, m, ctrl)
	m, cmd := press(t, m, runes("Let my words be gentle and brave."), enter)
	m = update(m, await[submitDoneMsg](t, cmd))

	m, _ = press(t, m, runes("n"))
	assert.Equal(t, screenQuestion, m.screen)
	assert.Equal(t, 0, ctrl.Index())
	assert.Nil(t, ctrl.Result())
	assert.Empty(t, m.letter.Value())
}
