package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AlhasanIQ/oriki/catalog"
	"github.com/AlhasanIQ/oriki/provider"
	"github.com/AlhasanIQ/oriki/quiz"
	"github.com/AlhasanIQ/oriki/submission"
)

const displayNameKey = "display_name"

type submitOptions struct {
	answersFile string
	answers     []string
	name        string
	asJSON      bool
	audioOut    string
	timeout     string
}

// resultJSON is the machine-readable form of a result.
type resultJSON struct {
	PoemLines    []string        `json:"poem_lines"`
	Affirmations []string        `json:"affirmations"`
	CulturalMode string          `json:"cultural_mode"`
	StyleNotes   string          `json:"style_notes,omitempty"`
	FocusAreas   []string        `json:"focus_areas,omitempty"`
	Themes       json.RawMessage `json:"themes,omitempty"`
	SavedAt      *time.Time      `json:"saved_at,omitempty"`
	AudioPath    string          `json:"audio_path,omitempty"`
}

func newSubmitCmd(a *app) *cobra.Command {
	var opts submitOptions
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Answer the quiz from flags or a file and print the result",
		Long: `Answers are given as question-id=value. A value may be the option value,
its label, or its 1-based position; separate several selections with commas.

  oriki submit --answers answers.yaml
  oriki submit --answer top_values=integrity,family --answer cultural_mode=2 ...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSubmit(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.answersFile, "answers", "", "YAML file mapping question id to answer")
	f.StringArrayVar(&opts.answers, "answer", nil, "Answer in the form id=value. Repeatable.")
	f.StringVar(&opts.name, "name", "", "Name to celebrate when pronouns is name_only")
	f.BoolVar(&opts.asJSON, "json", false, "Print the result as JSON")
	f.StringVar(&opts.audioOut, "audio", "", "Also narrate the result and save the audio here")
	f.StringVar(&opts.timeout, "timeout", "", "Override request_timeout (e.g. 90s)")
	return cmd
}

func (a *app) runSubmit(parent context.Context, opts submitOptions) error {
	raw, err := collectAnswers(opts)
	if err != nil {
		return err
	}
	if t := strings.TrimSpace(opts.timeout); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return fmt.Errorf("invalid --timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("--timeout must be > 0")
		}
		a.cfg.RequestTimeout = d.String()
		if soft, err := time.ParseDuration(a.cfg.SoftTimeout); err != nil || soft >= d {
			a.cfg.SoftTimeout = (d / 4).String()
		}
	}

	ctx, stop := signalContext(parent)
	defer stop()

	s := newSty(a.io.ErrOut)
	observe := func(e submission.Event) {
		if e == submission.EventSlow {
			a.logger.Info("submission is slow")
		}
	}
	sess, err := a.newSession(ctx, observe)
	if err != nil {
		return err
	}
	defer sess.Close()
	ctrl := sess.ctrl

	if err := applyAnswers(ctrl, raw); err != nil {
		return err
	}
	if err := ctrl.GoTo(ctrl.Catalog().Len() - 1); err != nil {
		return describeValidation(err)
	}
	tr, err := ctrl.Advance()
	if err != nil {
		return describeValidation(err)
	}
	if tr != quiz.TransitionSubmit {
		return fmt.Errorf("quiz did not reach submission")
	}

	fmt.Fprintf(a.io.ErrOut, "Sending answers via %s...\n", sess.provider.Name())
	sp := s.startSpinner("Weaving your Oríkì...")
	out, err := ctrl.Submit(ctx)
	sp.stop()
	if err != nil {
		return err
	}
	if err := outcomeError(out.State, out.Failure); err != nil {
		return err
	}

	res := ctrl.Result()
	doc := resultJSON{
		PoemLines:    res.PoemLines,
		Affirmations: res.Affirmations,
		CulturalMode: res.CulturalMode,
		StyleNotes:   res.StyleNotes,
		FocusAreas:   res.FocusAreas,
		Themes:       res.Themes,
	}

	if strings.TrimSpace(opts.audioOut) != "" {
		sp := s.startSpinner("Creating audio...")
		audio, err := ctrl.GenerateAudio(ctx)
		sp.stop()
		if err != nil {
			return err
		}
		if err := outcomeError(audio.State, audio.Failure); err != nil {
			return fmt.Errorf("audio: %w", err)
		}
		path, err := ctrl.SaveAudio(opts.audioOut)
		if err != nil {
			return err
		}
		doc.AudioPath = path
		s.success("Saved audio to " + path)
	}

	if opts.asJSON {
		return writeJSON(a.io.Out, doc)
	}
	writeResult(a.io.Out, doc)
	return nil
}

func describeValidation(err error) error {
	var verr *quiz.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("%s: %s", verr.QuestionID, verr.Message)
	}
	return err
}

func outcomeError(state submission.State, failure *submission.Failure) error {
	switch state {
	case submission.StateSucceeded:
		return nil
	case submission.StateFailed:
		return errors.New(failure.UserMessage())
	case submission.StateCancelled:
		return errors.New("cancelled")
	default:
		return fmt.Errorf("unexpected state %s", state)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResult(w io.Writer, doc resultJSON) {
	for _, line := range doc.PoemLines {
		fmt.Fprintln(w, line)
	}
	if len(doc.Affirmations) > 0 {
		fmt.Fprintln(w)
		for _, aff := range doc.Affirmations {
			fmt.Fprintf(w, "- %s\n", aff)
		}
	}
	if provider.IsYorubaMode(doc.CulturalMode) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, provider.CulturalDisclaimer)
	}
}

// collectAnswers merges the answers file with --answer flags; flags win.
func collectAnswers(opts submitOptions) (map[string]string, error) {
	out := map[string]string{}
	if path := strings.TrimSpace(opts.answersFile); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var doc map[string]any
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		for id, v := range doc {
			switch v := v.(type) {
			case []any:
				parts := make([]string, 0, len(v))
				for _, item := range v {
					parts = append(parts, fmt.Sprint(item))
				}
				out[id] = strings.Join(parts, ",")
			case nil:
			default:
				out[id] = fmt.Sprint(v)
			}
		}
	}
	for _, item := range opts.answers {
		id, value, ok := strings.Cut(item, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid --answer %q, want id=value", item)
		}
		out[id] = value
	}
	if strings.TrimSpace(opts.name) != "" {
		out[displayNameKey] = opts.name
	}
	return out, nil
}

func applyAnswers(ctrl *quiz.Controller, raw map[string]string) error {
	cat := ctrl.Catalog()
	for id := range raw {
		if id == displayNameKey {
			continue
		}
		if _, ok := cat.Get(id); !ok {
			return fmt.Errorf("unknown question %q", id)
		}
	}

	var missing []string
	for _, q := range cat.Questions() {
		value, ok := raw[q.ID]
		if !ok || strings.TrimSpace(value) == "" {
			missing = append(missing, q.ID)
			continue
		}
		answer, err := resolveAnswer(q, value)
		if err != nil {
			return err
		}
		if err := ctrl.SetAnswer(q.ID, answer); err != nil {
			return fmt.Errorf("%s: %w", q.ID, err)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing answers for %s", strings.Join(missing, ", "))
	}
	if name, ok := raw[displayNameKey]; ok {
		if err := ctrl.SetDisplayName(name); err != nil {
			return err
		}
	}
	return nil
}

// resolveAnswer maps user tokens onto option values. Each token may be the
// value, the label, or a 1-based position.
func resolveAnswer(q catalog.Question, raw string) (quiz.Answer, error) {
	switch q.Kind {
	case catalog.KindFreeText:
		return quiz.TextAnswer(strings.TrimSpace(raw)), nil
	case catalog.KindSingleSelect:
		v, err := resolveOption(q, raw)
		if err != nil {
			return quiz.Answer{}, err
		}
		return quiz.SingleAnswer(v), nil
	default:
		tokens := splitAnswerTokens(raw)
		values := make([]string, 0, len(tokens))
		for _, token := range tokens {
			v, err := resolveOption(q, token)
			if err != nil {
				return quiz.Answer{}, err
			}
			values = append(values, v)
		}
		return quiz.MultiAnswer(values...), nil
	}
}

func resolveOption(q catalog.Question, token string) (string, error) {
	token = strings.TrimSpace(strings.Trim(strings.TrimSpace(token), "()[]{}<>."))
	if q.HasOption(token) {
		return token, nil
	}
	for _, o := range q.Options {
		if strings.EqualFold(o.Value, token) || strings.EqualFold(o.Label, token) {
			return o.Value, nil
		}
	}
	if idx, err := strconv.Atoi(token); err == nil && idx >= 1 && idx <= len(q.Options) {
		return q.Options[idx-1].Value, nil
	}
	return "", fmt.Errorf("%s: no option matches %q", q.ID, token)
}

func splitAnswerTokens(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ',', ';', '\n':
			return true
		default:
			return false
		}
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			out = append(out, t)
		}
	}
	return out
}
