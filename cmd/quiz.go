package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AlhasanIQ/oriki/ui"
)

func newQuizCmd(a *app) *cobra.Command {
	var audioPath string
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Take the quiz interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.audioPath = audioPath
			return a.runQuiz(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&audioPath, "audio-out", "", "Where to save narration (default ./my-oriki-audio.mp3)")
	return cmd
}

func (a *app) runQuiz(parent context.Context) error {
	ctx, stop := signalContext(parent)
	defer stop()

	observe, events := ui.EventChannel()
	s, err := a.newSession(ctx, observe)
	if err != nil {
		return err
	}
	defer s.Close()

	if s.ctrl.RestoreCached(ctx) {
		a.logger.Info("showing cached result")
	}

	model := ui.New(ctx, s.ctrl, ui.Options{
		Events:    events,
		AudioPath: a.audioPath,
		Logger:    a.logger,
	})
	prog := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(a.io.In),
		tea.WithOutput(a.io.Out),
		tea.WithAltScreen(),
	)
	if _, err := prog.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		a.logger.Error("quiz ended with error", zap.Error(err))
		return err
	}
	return nil
}
