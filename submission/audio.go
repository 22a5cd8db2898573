package submission

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AlhasanIQ/oriki/contract"
	"github.com/AlhasanIQ/oriki/provider"
)

const DefaultAudioTimeout = 60 * time.Second

type Narrator interface {
	Audio(ctx context.Context, req contract.AudioRequest) (contract.AudioResponse, error)
}

type AudioOptions struct {
	Timeout  time.Duration
	Voice    string
	Clock    Clock
	Logger   *zap.Logger
	Observer func(Event)
}

// AudioPipeline synthesizes narration. It has a hard timeout only.
type AudioPipeline struct {
	narrator Narrator
	voice    string
	logger   *zap.Logger
	flight   *flight[Audio]
}

func NewAudioPipeline(narrator Narrator, opts AudioOptions) *AudioPipeline {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultAudioTimeout
	}
	if strings.TrimSpace(opts.Voice) == "" {
		opts.Voice = provider.DefaultVoice
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &AudioPipeline{
		narrator: narrator,
		voice:    strings.TrimSpace(opts.Voice),
		logger:   opts.Logger.Named("audio"),
		flight:   newFlight[Audio](opts.Clock, 0, opts.Timeout, opts.Observer),
	}
}

// Generate narrates the poem followed by the affirmations.
func (p *AudioPipeline) Generate(ctx context.Context, poemLines, affirmations []string) Outcome[Audio] {
	attemptID := uuid.NewString()
	logger := p.logger.With(zap.String("attempt", attemptID))
	text := provider.NarrationText(poemLines, affirmations)
	logger.Info("generating audio", zap.String("voice", p.voice), zap.Int("chars", len(text)))

	out := p.flight.do(ctx, func(ctx context.Context) (*Audio, *Failure) {
		resp, err := p.narrator.Audio(provider.WithRequestID(ctx, attemptID), contract.AudioRequest{Text: text, Voice: p.voice})
		if err != nil {
			return nil, classify(err)
		}
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(resp.AudioBase64))
		if err != nil || len(data) == 0 {
			return nil, &Failure{Kind: ErrEmptyResult, Message: "The service returned no audio. Please try again.", Err: err}
		}
		return &Audio{Data: data, DurationSeconds: resp.DurationSeconds, Voice: p.voice}, nil
	})

	if out.State == StateFailed {
		logger.Warn("audio failed", zap.String("kind", string(out.Failure.Kind)), zap.Error(out.Failure))
	}
	return out
}

func (p *AudioPipeline) Cancel() bool { return p.flight.cancel() }

// Reset discards any generated audio and aborts a request in flight.
func (p *AudioPipeline) Reset() { p.flight.reset() }

func (p *AudioPipeline) Outcome() Outcome[Audio] { return p.flight.snapshot() }

func (p *AudioPipeline) Voice() string { return p.voice }
