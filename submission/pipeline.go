package submission

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AlhasanIQ/oriki/contract"
	"github.com/AlhasanIQ/oriki/provider"
)

const (
	DefaultSoftTimeout = 15 * time.Second
	DefaultHardTimeout = 60 * time.Second
)

type Generator interface {
	Generate(ctx context.Context, req contract.GenerateRequest) (contract.GenerateResponse, error)
}

type Options struct {
	SoftTimeout time.Duration
	HardTimeout time.Duration
	Clock       Clock
	Logger      *zap.Logger
	Observer    func(Event)
}

// Pipeline sends generation requests and tracks their Outcome.
type Pipeline struct {
	gen    Generator
	logger *zap.Logger
	flight *flight[Result]
}

func NewPipeline(gen Generator, opts Options) *Pipeline {
	if opts.SoftTimeout <= 0 {
		opts.SoftTimeout = DefaultSoftTimeout
	}
	if opts.HardTimeout <= 0 {
		opts.HardTimeout = DefaultHardTimeout
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Pipeline{
		gen:    gen,
		logger: opts.Logger.Named("submission"),
		flight: newFlight[Result](opts.Clock, opts.SoftTimeout, opts.HardTimeout, opts.Observer),
	}
}

// Submit sends req and blocks until the attempt succeeds, fails, times out
// or is cancelled. Cancelling ctx yields StateCancelled.
func (p *Pipeline) Submit(ctx context.Context, req contract.GenerateRequest) Outcome[Result] {
	attemptID := uuid.NewString()
	logger := p.logger.With(zap.String("attempt", attemptID))
	logger.Info("submitting", zap.String("cultural_mode", req.CulturalMode))

	out := p.flight.do(ctx, func(ctx context.Context) (*Result, *Failure) {
		resp, err := p.gen.Generate(provider.WithRequestID(ctx, attemptID), req)
		if err != nil {
			return nil, classify(err)
		}
		return normalize(resp)
	})

	switch out.State {
	case StateSucceeded:
		logger.Info("generated",
			zap.Int("poem_lines", len(out.Value.PoemLines)),
			zap.Int("affirmations", len(out.Value.Affirmations)),
		)
	case StateFailed:
		logger.Warn("submission failed", zap.String("kind", string(out.Failure.Kind)), zap.Error(out.Failure))
	case StateCancelled:
		logger.Info("submission cancelled")
	}
	return out
}

// Cancel aborts the attempt in flight, if any.
func (p *Pipeline) Cancel() bool { return p.flight.cancel() }

// Reset aborts any attempt and returns the Outcome to idle.
func (p *Pipeline) Reset() { p.flight.reset() }

func (p *Pipeline) Outcome() Outcome[Result] { return p.flight.snapshot() }

func classify(err error) *Failure {
	var statusErr *provider.StatusError
	switch {
	case errors.As(err, &statusErr):
		return &Failure{Kind: ErrServer, Message: statusErr.Message(), Err: err}
	case errors.Is(err, provider.ErrMalformedResponse):
		return &Failure{Kind: ErrEmptyResult, Message: EmptyResultMessage, Err: err}
	default:
		return &Failure{Kind: ErrNetwork, Message: NetworkMessage, Err: err}
	}
}

func normalize(resp contract.GenerateResponse) (*Result, *Failure) {
	if resp.Poem == nil || resp.Affirmations == nil {
		return nil, &Failure{Kind: ErrEmptyResult, Message: EmptyResultMessage}
	}
	lines := NonBlank(resp.Poem.PoemLines)
	if len(lines) == 0 {
		return nil, &Failure{Kind: ErrEmptyResult, Message: EmptyResultMessage}
	}
	mode := strings.TrimSpace(resp.Poem.CulturalMode)
	if mode == "" {
		mode = strings.TrimSpace(resp.CulturalMode)
	}
	return &Result{
		PoemLines:    lines,
		Affirmations: NonBlank(resp.Affirmations.Affirmations),
		CulturalMode: mode,
		StyleNotes:   strings.TrimSpace(resp.Poem.StyleNotes),
		FocusAreas:   NonBlank(resp.Affirmations.FocusAreas),
		Themes:       resp.Themes,
	}, nil
}

// NonBlank drops empty and whitespace-only entries, keeping order.
func NonBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}
