package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AlhasanIQ/oriki/cache"
	"github.com/AlhasanIQ/oriki/catalog"
	"github.com/AlhasanIQ/oriki/config"
	"github.com/AlhasanIQ/oriki/logging"
	"github.com/AlhasanIQ/oriki/provider"
	"github.com/AlhasanIQ/oriki/quiz"
	"github.com/AlhasanIQ/oriki/submission"
)

type IO struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// app carries what every command needs once the root pre-run has loaded
// configuration and logging.
type app struct {
	io        IO
	verbose   bool
	baseURL   string
	audioPath string
	cfg       config.Config
	logger    *zap.Logger
}

func Execute(args []string, io IO) error {
	if io.In == nil || io.Out == nil || io.ErrOut == nil {
		return fmt.Errorf("invalid IO")
	}
	root := newRootCmd(&app{io: io, logger: zap.NewNop()})
	root.SetArgs(args)
	root.SetIn(io.In)
	root.SetOut(io.Out)
	root.SetErr(io.ErrOut)
	return root.Execute()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "oriki",
		Short: "Personalized praise poetry from a short quiz",
		Long: `oriki asks nine questions about your values and character, then has the
Oriki service compose a praise poem and affirmations for you.

Run without arguments to start the interactive quiz.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { _ = a.logger.Sync() },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runQuiz(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log at debug level")
	root.PersistentFlags().StringVar(&a.baseURL, "api-url", "", "Override the service base URL")

	root.AddCommand(
		newQuizCmd(a),
		newSubmitCmd(a),
		newShowCmd(a),
		newClearCmd(a),
		newShareCmd(a),
		newAudioCmd(a),
		newCatalogCmd(a),
		newPingCmd(a),
		newStorageCmd(a),
		newConfigCmd(a),
		newSetupCmd(a),
	)
	return root
}

// setup loads configuration and logging. The config commands manage the file
// itself, so they skip it and keep working when the file is broken.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" {
			return nil
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	// the quiz owns the terminal, so its logs only go to the file
	logger, err := logging.New(cfg, a.verbose, a.verbose && !isQuizCommand(cmd))
	if err != nil {
		return err
	}
	a.logger = logger
	a.logger.Debug("command start", zap.String("command", cmd.CommandPath()))
	return nil
}

func isQuizCommand(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "quiz"
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func (a *app) provider() (provider.Provider, error) {
	return provider.New(a.cfg, a.baseURL, a.logger)
}

func (a *app) resultCache() (*cache.ResultCache, error) {
	store, err := cache.Open(a.cfg)
	if err != nil {
		return nil, err
	}
	return cache.NewResultCache(store, a.logger), nil
}

// sessionCache is resultCache for a quiz run. A backend that cannot be
// opened only costs the saved result, so it degrades to no storage.
func (a *app) sessionCache() *cache.ResultCache {
	rc, err := a.resultCache()
	if err != nil {
		a.logger.Warn("result cache unavailable, continuing without it",
			zap.String("backend", a.cfg.Cache.Backend), zap.Error(err))
		return cache.NewResultCache(cache.NopStore{}, a.logger)
	}
	return rc
}

// loadCatalog resolves the question set from catalog.source.
func (a *app) loadCatalog(ctx context.Context, p provider.Provider) (*catalog.Catalog, error) {
	switch strings.ToLower(strings.TrimSpace(a.cfg.Catalog.Source)) {
	case "", config.CatalogSourceBuiltin:
		return catalog.Default(), nil
	case config.CatalogSourceFile:
		if strings.TrimSpace(a.cfg.Catalog.Path) == "" {
			return nil, fmt.Errorf("catalog.source is file but catalog.path is empty")
		}
		return catalog.LoadFile(a.cfg.Catalog.Path)
	case config.CatalogSourceRemote:
		resp, err := p.Questions(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch questions: %w", err)
		}
		return catalog.FromRemote(resp)
	default:
		return nil, fmt.Errorf("unknown catalog source %q", a.cfg.Catalog.Source)
	}
}

type session struct {
	provider provider.Provider
	cache    *cache.ResultCache
	ctrl     *quiz.Controller
}

func (s *session) Close() {
	_ = s.cache.Close()
	_ = s.provider.Close()
}

// newSession wires provider, cache, pipelines and controller from config.
func (a *app) newSession(ctx context.Context, observer func(submission.Event)) (*session, error) {
	timeouts, err := config.EffectiveTimeouts(a.cfg)
	if err != nil {
		return nil, err
	}
	p, err := a.provider()
	if err != nil {
		return nil, err
	}
	cat, err := a.loadCatalog(ctx, p)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	rc := a.sessionCache()

	ctrl, err := quiz.NewController(quiz.Deps{
		Catalog: cat,
		Pipeline: submission.NewPipeline(p, submission.Options{
			SoftTimeout: timeouts.Soft,
			HardTimeout: timeouts.Request,
			Logger:      a.logger,
			Observer:    observer,
		}),
		Audio: submission.NewAudioPipeline(p, submission.AudioOptions{
			Timeout: timeouts.Audio,
			Voice:   a.cfg.Voice,
			Logger:  a.logger,
		}),
		Cache:  rc,
		Logger: a.logger,
	})
	if err != nil {
		_ = rc.Close()
		_ = p.Close()
		return nil, err
	}
	return &session{provider: p, cache: rc, ctrl: ctrl}, nil
}
