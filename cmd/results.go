package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AlhasanIQ/oriki/contract"
	"github.com/AlhasanIQ/oriki/provider"
	"github.com/AlhasanIQ/oriki/quiz"
	"github.com/AlhasanIQ/oriki/submission"
)

var errNoSavedResult = errors.New("no saved result; run `oriki` to take the quiz")

func (a *app) loadSaved(ctx context.Context) (*contract.CachedResult, error) {
	rc, err := a.resultCache()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	rec := rc.Load(ctx)
	if rec == nil {
		return nil, errNoSavedResult
	}
	return rec, nil
}

func newShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the last saved result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := a.loadSaved(cmd.Context())
			if err != nil {
				return err
			}
			doc := resultJSON{
				PoemLines:    submission.NonBlank(*rec.Poem),
				Affirmations: submission.NonBlank(*rec.Affirmations),
				CulturalMode: rec.CulturalMode,
				Themes:       rec.Themes,
			}
			if !rec.SavedAt.IsZero() {
				doc.SavedAt = &rec.SavedAt
			}
			if asJSON {
				return writeJSON(a.io.Out, doc)
			}
			writeResult(a.io.Out, doc)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the last saved result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := a.resultCache()
			if err != nil {
				return err
			}
			defer rc.Close()
			rc.Clear(cmd.Context())
			fmt.Fprintf(a.io.ErrOut, "Cleared saved result (%s)\n", rc.Backend())
			return nil
		},
	}
}

func newShareCmd(a *app) *cobra.Command {
	var qrPath string
	var showQR bool
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Print the last result as shareable text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := a.loadSaved(cmd.Context())
			if err != nil {
				return err
			}
			text := provider.ShareText(submission.NonBlank(*rec.Poem), submission.NonBlank(*rec.Affirmations))
			fmt.Fprintln(a.io.Out, text)

			if showQR {
				art, err := provider.RenderQR(text)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.io.ErrOut)
				fmt.Fprint(a.io.ErrOut, art)
			}
			if cmd.Flags().Changed("qr") {
				path, err := provider.WriteShareQRPNG(text, qrPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.io.ErrOut, "Wrote QR code to %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&qrPath, "qr", "", "Also write a QR code PNG (default in the temp dir)")
	cmd.Flags().Lookup("qr").NoOptDefVal = provider.DefaultShareQRPath()
	cmd.Flags().BoolVar(&showQR, "qr-terminal", false, "Draw the QR code in the terminal")
	return cmd
}

func newAudioCmd(a *app) *cobra.Command {
	var out, voice string
	cmd := &cobra.Command{
		Use:   "audio",
		Short: "Narrate the last saved result to an audio file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if v := strings.TrimSpace(voice); v != "" {
				a.cfg.Voice = v
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			sess, err := a.newSession(ctx, nil)
			if err != nil {
				return err
			}
			defer sess.Close()
			if !sess.ctrl.RestoreCached(ctx) {
				return errNoSavedResult
			}

			s := newSty(a.io.ErrOut)
			sp := s.startSpinner("Creating audio...")
			res, err := sess.ctrl.GenerateAudio(ctx)
			sp.stop()
			if err != nil {
				return err
			}
			if err := outcomeError(res.State, res.Failure); err != nil {
				return err
			}
			path, err := sess.ctrl.SaveAudio(out)
			if err != nil {
				return err
			}
			s.success(fmt.Sprintf("Saved %.0fs of narration to %s", res.Value.DurationSeconds, path))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", quiz.DefaultAudioFileName, "Output file")
	cmd.Flags().StringVar(&voice, "voice", "", "Narration voice (default from config)")
	return cmd
}
