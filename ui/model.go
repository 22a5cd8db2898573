// Package ui is the interactive terminal quiz.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/AlhasanIQ/oriki/catalog"
	"github.com/AlhasanIQ/oriki/provider"
	"github.com/AlhasanIQ/oriki/quiz"
	"github.com/AlhasanIQ/oriki/submission"
)

const noticeTTL = 3 * time.Second

type screen int

const (
	screenWelcome screen = iota
	screenQuestion
	screenSubmitting
	screenResults
	screenFailed
)

type Options struct {
	// Events receives submission pipeline events; see EventChannel.
	Events <-chan submission.Event
	// AudioPath is where "s" saves narration.
	AudioPath string
	// GlamourStyle overrides the auto-detected markdown style.
	GlamourStyle string
	Logger       *zap.Logger
}

// EventChannel adapts a pipeline observer to a channel the model listens on.
// Events are dropped rather than blocking the pipeline when nobody reads.
func EventChannel() (func(submission.Event), <-chan submission.Event) {
	ch := make(chan submission.Event, 16)
	return func(e submission.Event) {
		select {
		case ch <- e:
		default:
		}
	}, ch
}

type (
	submitDoneMsg struct {
		out submission.Outcome[submission.Result]
		err error
	}
	audioDoneMsg struct {
		out submission.Outcome[submission.Audio]
		err error
	}
	pipelineEventMsg submission.Event
	dismissNoticeMsg int
)

type Model struct {
	ctx    context.Context
	ctrl   *quiz.Controller
	events <-chan submission.Event
	logger *zap.Logger

	screen    screen
	cursor    int
	notice    string
	noticeSeq int
	slow      bool
	failure   string
	audioPath string
	audioNote string
	quitting  bool

	spinner  spinner.Model
	progress progress.Model
	letter   textarea.Model
	name     textinput.Model
	renderer *glamour.TermRenderer
	mdStyle  string
	styles   styles
	width    int
}

func New(ctx context.Context, ctrl *quiz.Controller, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.AudioPath == "" {
		opts.AudioPath = quiz.DefaultAudioFileName
	}

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = catalog.DefaultMaxLength
	ta.SetWidth(72)
	ta.SetHeight(6)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	ti := textinput.New()
	ti.Placeholder = "Your name"
	ti.CharLimit = 80
	ti.Prompt = "› "

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:       ctx,
		ctrl:      ctrl,
		events:    opts.Events,
		logger:    opts.Logger.Named("ui"),
		audioPath: opts.AudioPath,
		spinner:   sp,
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage()),
		letter:    ta,
		name:      ti,
		renderer:  newRenderer(opts.GlamourStyle, 80),
		mdStyle:   opts.GlamourStyle,
		styles:    defaultStyles(),
		width:     80,
	}
	if ctrl.Result() != nil && ctrl.Restored() {
		m.screen = screenResults
	}
	return m
}

func newRenderer(style string, width int) *glamour.TermRenderer {
	opt := glamour.WithAutoStyle()
	if style != "" {
		opt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(width))
	if err != nil {
		return nil
	}
	return r
}

func (m Model) Init() tea.Cmd {
	return m.listenEvents()
}

func (m Model) listenEvents() tea.Cmd {
	if m.events == nil {
		return nil
	}
	ch := m.events
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return pipelineEventMsg(e)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.letter.SetWidth(min(msg.Width-4, 100))
		m.renderer = newRenderer(m.mdStyle, min(msg.Width-4, 100))
		return m, nil

	case pipelineEventMsg:
		if submission.Event(msg) == submission.EventSlow && m.screen == screenSubmitting {
			m.slow = true
		}
		return m, m.listenEvents()

	case dismissNoticeMsg:
		if int(msg) == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case submitDoneMsg:
		return m.handleSubmitDone(msg)

	case audioDoneMsg:
		return m.handleAudioDone(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		switch m.screen {
		case screenWelcome:
			return m.updateWelcome(msg)
		case screenQuestion:
			return m.updateQuestion(msg)
		case screenSubmitting:
			return m.updateSubmitting(msg)
		case screenResults:
			return m.updateResults(msg)
		case screenFailed:
			return m.updateFailed(msg)
		}
	}
	return m, nil
}

func (m Model) busy() bool {
	return m.screen == screenSubmitting || m.ctrl.AudioOutcome().State == submission.StatePending
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.ctrl.CancelSubmission()
	m.ctrl.CancelAudio()
	m.quitting = true
	return m, tea.Quit
}

func (m Model) showNotice(text string) (Model, tea.Cmd) {
	m.noticeSeq++
	m.notice = text
	seq := m.noticeSeq
	return m, tea.Tick(noticeTTL, func(time.Time) tea.Msg { return dismissNoticeMsg(seq) })
}

func (m Model) updateWelcome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", " ":
		m.screen = screenQuestion
		return m.enterQuestion(), nil
	case "q", "esc":
		return m.quit()
	}
	return m, nil
}

// enterQuestion syncs the widgets with the stored answer for the current
// question.
func (m Model) enterQuestion() Model {
	q := m.ctrl.Current()
	m.cursor = 0
	a, _ := m.ctrl.Answer(q.ID)
	switch q.Kind {
	case catalog.KindFreeText:
		m.letter.Placeholder = q.Placeholder
		m.letter.CharLimit = q.Constraints.MaxLength
		m.letter.SetValue(a.Text)
		m.letter.Focus()
	case catalog.KindSingleSelect:
		m.letter.Blur()
		for i, o := range q.Options {
			if o.Value == a.Value {
				m.cursor = i
			}
		}
	default:
		m.letter.Blur()
	}
	m.name.SetValue(m.ctrl.DisplayName())
	return m.syncNameFocus()
}

func (m Model) syncNameFocus() Model {
	q := m.ctrl.Current()
	onNameOnly := q.Kind == catalog.KindSingleSelect && m.cursor < len(q.Options) && q.Options[m.cursor].Value == catalog.NameOnly
	if onNameOnly && m.ctrl.NeedsDisplayName() {
		m.name.Focus()
	} else {
		m.name.Blur()
	}
	return m
}

func (m Model) updateQuestion(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	q := m.ctrl.Current()

	if q.Kind == catalog.KindFreeText {
		switch msg.String() {
		case "enter":
			return m.advance()
		case "esc":
			return m.retreat()
		}
		var cmd tea.Cmd
		m.letter, cmd = m.letter.Update(msg)
		if err := m.ctrl.SetText(q.ID, m.letter.Value()); err != nil {
			m.logger.Debug("set text", zap.Error(err))
		}
		return m, cmd
	}

	switch msg.String() {
	case "up", "k":
		if !m.name.Focused() || msg.String() == "up" {
			if m.cursor > 0 {
				m.cursor--
			}
			return m.syncNameFocus(), nil
		}
	case "down", "j":
		if !m.name.Focused() || msg.String() == "down" {
			if m.cursor < len(q.Options)-1 {
				m.cursor++
			}
			return m.syncNameFocus(), nil
		}
	case "esc":
		return m.retreat()
	case "enter":
		if m.name.Focused() {
			return m.advance()
		}
		if q.Kind == catalog.KindSingleSelect {
			value := q.Options[m.cursor].Value
			if a, _ := m.ctrl.Answer(q.ID); a.Value != value {
				if err := m.ctrl.Select(q.ID, value); err != nil {
					return m.showNotice(err.Error())
				}
			}
			if m.ctrl.NeedsDisplayName() && strings.TrimSpace(m.ctrl.DisplayName()) == "" {
				return m.syncNameFocus(), nil
			}
		}
		return m.advance()
	case " ", "x":
		if !m.name.Focused() {
			if err := m.ctrl.Select(q.ID, q.Options[m.cursor].Value); err != nil {
				return m.showNotice(err.Error())
			}
			return m.syncNameFocus(), nil
		}
	}

	if m.name.Focused() {
		var cmd tea.Cmd
		m.name, cmd = m.name.Update(msg)
		if err := m.ctrl.SetDisplayName(m.name.Value()); err != nil {
			m.logger.Debug("set display name", zap.Error(err))
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) advance() (tea.Model, tea.Cmd) {
	tr, err := m.ctrl.Advance()
	if err != nil {
		return m.showNotice(err.Error())
	}
	m.notice = ""
	switch tr {
	case quiz.TransitionSubmit:
		return m.startSubmit(m.submitCmd(m.ctrl.Submit))
	case quiz.TransitionMoved:
		return m.enterQuestion(), nil
	}
	return m, nil
}

func (m Model) retreat() (tea.Model, tea.Cmd) {
	if m.ctrl.Retreat() {
		m.notice = ""
		return m.enterQuestion(), nil
	}
	return m, nil
}

func (m Model) startSubmit(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.screen = screenSubmitting
	m.slow = false
	m.failure = ""
	m.notice = ""
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m Model) submitCmd(fn func(context.Context) (submission.Outcome[submission.Result], error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		out, err := fn(ctx)
		return submitDoneMsg{out: out, err: err}
	}
}

func (m Model) updateSubmitting(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "x", "esc":
		m.ctrl.CancelSubmission()
	}
	return m, nil
}

func (m Model) handleSubmitDone(msg submitDoneMsg) (tea.Model, tea.Cmd) {
	if m.screen != screenSubmitting {
		return m, nil
	}
	if msg.err != nil {
		var verr *quiz.ValidationError
		if errors.As(msg.err, &verr) {
			m.screen = screenQuestion
			return m.showNotice(verr.Message)
		}
		m.screen = screenFailed
		m.failure = msg.err.Error()
		return m, nil
	}

	switch msg.out.State {
	case submission.StateSucceeded:
		m.screen = screenResults
		m.audioNote = ""
		return m, nil
	case submission.StateFailed:
		m.failure = msg.out.Failure.UserMessage()
	case submission.StateCancelled:
		m.failure = "Generation cancelled."
	default:
		// restarted or returned to the quiz while pending
		return m, nil
	}

	if m.ctrl.Phase() == quiz.PhaseReviewing {
		m.screen = screenResults
		return m.showNotice(m.failure)
	}
	m.screen = screenFailed
	return m, nil
}

func (m Model) updateFailed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r", "enter":
		return m.startSubmit(m.submitCmd(m.ctrl.Retry))
	case "b", "esc":
		if err := m.ctrl.ReturnToQuiz(); err != nil {
			return m.showNotice(err.Error())
		}
		m.screen = screenQuestion
		return m.enterQuestion(), nil
	case "n":
		return m.restart()
	case "q":
		return m.quit()
	}
	return m, nil
}

func (m Model) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch k {
	case "q", "esc":
		return m.quit()
	case "n":
		return m.restart()
	case "r":
		if m.ctrl.Restored() {
			return m.showNotice("Take the quiz again to regenerate.")
		}
		m.audioNote = ""
		return m.startSubmit(m.submitCmd(m.ctrl.Regenerate))
	case "a":
		if m.ctrl.AudioOutcome().State == submission.StatePending {
			return m, nil
		}
		m.audioNote = ""
		ctx := m.ctx
		ctrl := m.ctrl
		return m, tea.Batch(func() tea.Msg {
			out, err := ctrl.GenerateAudio(ctx)
			return audioDoneMsg{out: out, err: err}
		}, m.spinner.Tick)
	case "s":
		path, err := m.ctrl.SaveAudio(m.audioPath)
		if err != nil {
			return m.showNotice(err.Error())
		}
		return m.showNotice("Saved audio to " + path)
	}

	if mode, ok := m.traditionForKey(k); ok {
		if m.ctrl.Restored() {
			return m.showNotice("Take the quiz again to switch traditions.")
		}
		if mode == m.ctrl.DisplayedMode() {
			return m, nil
		}
		m.audioNote = ""
		return m.startSubmit(m.submitCmd(func(ctx context.Context) (submission.Outcome[submission.Result], error) {
			out, _, err := m.ctrl.SwitchTradition(ctx, mode)
			return out, err
		}))
	}
	return m, nil
}

// traditionForKey maps "1".."9" to the cultural_mode options in order.
func (m Model) traditionForKey(k string) (string, bool) {
	if len(k) != 1 || k[0] < '1' || k[0] > '9' {
		return "", false
	}
	q, ok := m.ctrl.Catalog().ByField("cultural_mode")
	if !ok {
		return "", false
	}
	i := int(k[0] - '1')
	if i >= len(q.Options) {
		return "", false
	}
	return q.Options[i].Value, true
}

func (m Model) handleAudioDone(msg audioDoneMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err != nil:
		m.audioNote = msg.err.Error()
	case msg.out.State == submission.StateSucceeded:
		m.audioNote = fmt.Sprintf("Audio ready (%.0fs). Press s to save.", msg.out.Value.DurationSeconds)
	case msg.out.State == submission.StateFailed:
		m.audioNote = msg.out.Failure.UserMessage() + " Press a to try again."
	default:
		m.audioNote = ""
	}
	return m, nil
}

func (m Model) restart() (tea.Model, tea.Cmd) {
	m.ctrl.Restart(m.ctx)
	m.screen = screenQuestion
	m.failure = ""
	m.audioNote = ""
	m.notice = ""
	m.letter.Reset()
	m.name.Reset()
	return m.enterQuestion(), nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	switch m.screen {
	case screenWelcome:
		m.viewWelcome(&b)
	case screenQuestion:
		m.viewQuestion(&b)
	case screenSubmitting:
		m.viewSubmitting(&b)
	case screenResults:
		m.viewResults(&b)
	case screenFailed:
		m.viewFailed(&b)
	}
	if m.notice != "" {
		b.WriteString("\n" + m.styles.Notice.Render(m.notice) + "\n")
	}
	return m.styles.Frame.Render(b.String())
}

func (m Model) viewWelcome(b *strings.Builder) {
	b.WriteString(m.styles.Title.Render("Oríkì") + "\n\n")
	b.WriteString("Answer a few questions and receive a praise poem written for you,\n")
	b.WriteString("with affirmations to carry with you.\n")
	b.WriteString(m.styles.Help.Render("enter: begin • q: quit"))
}

func (m Model) viewQuestion(b *strings.Builder) {
	q := m.ctrl.Current()
	cur, total := m.ctrl.Progress()
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("Question %d of %d", cur, total)) + "\n")
	b.WriteString(m.progress.ViewAs(float64(cur)/float64(total)) + "\n\n")
	b.WriteString(m.styles.Question.Render(q.Text) + "\n\n")

	a, _ := m.ctrl.Answer(q.ID)
	switch q.Kind {
	case catalog.KindFreeText:
		b.WriteString(m.letter.View() + "\n")
		count := utf8.RuneCountInString(m.letter.Value())
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("%d/%d", count, q.Constraints.MaxLength)) + "\n")
	default:
		if q.Kind == catalog.KindMultiSelect {
			b.WriteString(m.styles.Muted.Render(fmt.Sprintf("Choose up to %d (%d selected)", q.Constraints.MaxSelections, len(a.Selected))) + "\n")
		}
		for i, o := range q.Options {
			cursor := "  "
			if i == m.cursor {
				cursor = m.styles.Cursor.Render("› ")
			}
			mark := "( )"
			if q.Kind == catalog.KindMultiSelect {
				mark = "[ ]"
			}
			label := m.styles.Option.Render(o.Label)
			if isChosen(q, a, o.Value) {
				mark = strings.Replace(mark, " ", "x", 1)
				label = m.styles.Selected.Render(o.Label)
			}
			b.WriteString(cursor + mark + " " + label + "\n")
		}
		if m.ctrl.NeedsDisplayName() {
			b.WriteString("\nName to celebrate:\n" + m.name.View() + "\n")
		}
	}

	help := "enter: next • esc: back"
	switch q.Kind {
	case catalog.KindMultiSelect:
		help = "↑/↓: move • space: toggle • " + help
	case catalog.KindSingleSelect:
		help = "↑/↓: move • space: select • " + help
	case catalog.KindFreeText:
		help = "alt+enter: new line • " + help
	}
	b.WriteString(m.styles.Help.Render(help))
}

func isChosen(q catalog.Question, a quiz.Answer, value string) bool {
	if q.Kind == catalog.KindSingleSelect {
		return a.Value == value
	}
	for _, v := range a.Selected {
		if v == value {
			return true
		}
	}
	return false
}

func (m Model) viewSubmitting(b *strings.Builder) {
	b.WriteString(m.spinner.View() + " Weaving your Oríkì...\n")
	if m.slow {
		b.WriteString("\n" + m.styles.Notice.Render("This is taking longer than usual. You can keep waiting or cancel.") + "\n")
	}
	b.WriteString(m.styles.Help.Render("x: cancel • ctrl+c: quit"))
}

func (m Model) viewFailed(b *strings.Builder) {
	b.WriteString(m.styles.Error.Render("Something went wrong") + "\n\n")
	b.WriteString(m.failure + "\n")
	b.WriteString(m.styles.Help.Render("r: try again • b: back to the questions • n: start over • q: quit"))
}

func (m Model) viewResults(b *strings.Builder) {
	res := m.ctrl.Result()
	if res == nil {
		return
	}
	md := provider.RenderMarkdown(res.PoemLines, res.Affirmations, res.CulturalMode)
	rendered := md
	if m.renderer != nil {
		if out, err := m.renderer.Render(md); err == nil {
			rendered = out
		}
	}
	b.WriteString(rendered)
	if m.ctrl.Restored() {
		b.WriteString(m.styles.Muted.Render("Your last Oríkì, restored from a previous visit.") + "\n")
	}

	switch out := m.ctrl.AudioOutcome(); {
	case out.State == submission.StatePending:
		b.WriteString("\n" + m.spinner.View() + " Creating audio...\n")
	case m.audioNote != "":
		b.WriteString("\n" + m.audioNote + "\n")
	}

	help := "a: audio • s: save audio • n: start over • q: quit"
	if !m.ctrl.Restored() {
		help = "r: regenerate • " + m.traditionHelp() + " • " + help
	}
	b.WriteString(m.styles.Help.Render(help))
}

func (m Model) traditionHelp() string {
	q, ok := m.ctrl.Catalog().ByField("cultural_mode")
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(q.Options))
	for i, o := range q.Options {
		if i >= 9 {
			break
		}
		label := o.Label
		if o.Value == m.ctrl.DisplayedMode() {
			label = "[" + label + "]"
		}
		parts = append(parts, fmt.Sprintf("%d: %s", i+1, label))
	}
	return strings.Join(parts, " ")
}
