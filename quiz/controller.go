package quiz

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/AlhasanIQ/oriki/catalog"
	"github.com/AlhasanIQ/oriki/contract"
	"github.com/AlhasanIQ/oriki/submission"
)

const DefaultAudioFileName = "my-oriki-audio.mp3"

var ErrNoAudio = errors.New("no audio has been generated")

// ResultStore is the slice of the result cache the controller needs. Save
// and Clear must swallow storage failures.
type ResultStore interface {
	Save(ctx context.Context, rec contract.CachedResult)
	Load(ctx context.Context) *contract.CachedResult
	Clear(ctx context.Context)
}

type Deps struct {
	Catalog  *catalog.Catalog
	Pipeline *submission.Pipeline
	Audio    *submission.AudioPipeline
	Cache    ResultStore
	Clock    submission.Clock
	Logger   *zap.Logger
}

// Controller owns one quiz session and drives the submission and audio
// pipelines for it. Methods are safe for concurrent use; blocking calls do
// not hold the lock, so Cancel and Restart work while a request is pending.
type Controller struct {
	pipeline *submission.Pipeline
	audio    *submission.AudioPipeline
	cache    ResultStore
	clock    submission.Clock
	logger   *zap.Logger

	mu       sync.Mutex
	session  *Session
	result   *submission.Result
	restored bool
	// epoch is bumped by every send, Restart and ReturnToQuiz; only the
	// completion of the latest epoch updates the session.
	epoch uint64
}

func NewController(d Deps) (*Controller, error) {
	if d.Pipeline == nil {
		return nil, errors.New("controller requires a submission pipeline")
	}
	if d.Catalog == nil {
		d.Catalog = catalog.Default()
	}
	if d.Audio == nil {
		return nil, errors.New("controller requires an audio pipeline")
	}
	if d.Clock == nil {
		d.Clock = submission.RealClock()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Controller{
		pipeline: d.Pipeline,
		audio:    d.Audio,
		cache:    d.Cache,
		clock:    d.Clock,
		logger:   d.Logger.Named("quiz"),
		session:  NewSession(d.Catalog),
	}, nil
}

func (c *Controller) Catalog() *catalog.Catalog { return c.session.Catalog() }

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Phase()
}

func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Index()
}

func (c *Controller) Current() catalog.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Current()
}

func (c *Controller) Progress() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Progress()
}

func (c *Controller) Answer(id string) (Answer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Answer(id)
}

func (c *Controller) DisplayName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.DisplayName()
}

func (c *Controller) DisplayedMode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.DisplayedMode()
}

func (c *Controller) LastSubmission() *contract.GenerateRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.LastSubmission()
}

func (c *Controller) CanAdvance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.CanAdvance()
}

func (c *Controller) CanRetreat() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.CanRetreat()
}

func (c *Controller) NeedsDisplayName() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.NeedsDisplayName()
}

func (c *Controller) Select(id, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Select(id, value)
}

func (c *Controller) SetAnswer(id string, a Answer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.SetAnswer(id, a)
}

func (c *Controller) SetText(id, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.SetText(id, text)
}

func (c *Controller) SetDisplayName(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.SetDisplayName(name)
}

func (c *Controller) Advance() (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Advance()
}

func (c *Controller) Retreat() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Retreat()
}

func (c *Controller) GoTo(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.GoTo(i)
}

// Result is the displayed result, or nil.
func (c *Controller) Result() *submission.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return nil
	}
	r := *c.result
	r.PoemLines = slices.Clone(r.PoemLines)
	r.Affirmations = slices.Clone(r.Affirmations)
	return &r
}

// Restored reports whether the displayed result came from the cache rather
// than from a submission in this session.
func (c *Controller) Restored() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.restored
}

func (c *Controller) Outcome() submission.Outcome[submission.Result] { return c.pipeline.Outcome() }

func (c *Controller) AudioOutcome() submission.Outcome[submission.Audio] { return c.audio.Outcome() }

// Submit builds the payload from the answers and sends it. It is only valid
// once Advance has returned TransitionSubmit. Failure or cancellation leaves
// the phase at Submitting.
func (c *Controller) Submit(ctx context.Context) (submission.Outcome[submission.Result], error) {
	c.mu.Lock()
	if c.session.Phase() != PhaseSubmitting {
		c.mu.Unlock()
		return submission.Outcome[submission.Result]{}, ErrNotSubmitting
	}
	if v, ok := c.session.FirstUnanswered(); ok {
		c.mu.Unlock()
		return submission.Outcome[submission.Result]{}, v
	}
	req := BuildPayload(c.session.Catalog(), c.session.Answers())
	c.session.recordSubmission(req)
	c.result = nil
	c.restored = false
	c.epoch++
	epoch := c.epoch
	c.mu.Unlock()

	return c.send(ctx, epoch, req), nil
}

// Retry resends the last payload unchanged.
func (c *Controller) Retry(ctx context.Context) (submission.Outcome[submission.Result], error) {
	c.mu.Lock()
	req, epoch, err := c.resend(nil)
	c.mu.Unlock()
	if err != nil {
		return submission.Outcome[submission.Result]{}, err
	}
	return c.send(ctx, epoch, req), nil
}

// Regenerate resends the last payload unchanged and discards any audio for
// the current result.
func (c *Controller) Regenerate(ctx context.Context) (submission.Outcome[submission.Result], error) {
	c.mu.Lock()
	req, epoch, err := c.resend(nil)
	c.mu.Unlock()
	if err != nil {
		return submission.Outcome[submission.Result]{}, err
	}
	c.audio.Reset()
	return c.send(ctx, epoch, req), nil
}

// SwitchTradition resends the last payload with only cultural_mode
// replaced. Asking for the mode already displayed sends nothing and reports
// false.
func (c *Controller) SwitchTradition(ctx context.Context, mode string) (submission.Outcome[submission.Result], bool, error) {
	c.mu.Lock()
	if q, ok := c.session.Catalog().ByField("cultural_mode"); ok && !q.HasOption(mode) {
		c.mu.Unlock()
		return submission.Outcome[submission.Result]{}, false, fmt.Errorf("%w %q", ErrUnknownMode, mode)
	}
	if c.session.LastSubmission() != nil && mode == c.session.DisplayedMode() {
		c.mu.Unlock()
		return c.pipeline.Outcome(), false, nil
	}
	req, epoch, err := c.resend(func(r *contract.GenerateRequest) { r.CulturalMode = mode })
	c.mu.Unlock()
	if err != nil {
		return submission.Outcome[submission.Result]{}, false, err
	}
	c.audio.Reset()
	return c.send(ctx, epoch, req), true, nil
}

// resend prepares the stored payload, optionally modified, as the next
// submission. Callers hold c.mu.
func (c *Controller) resend(modify func(*contract.GenerateRequest)) (contract.GenerateRequest, uint64, error) {
	last := c.session.LastSubmission()
	if last == nil {
		return contract.GenerateRequest{}, 0, ErrNoSubmission
	}
	if c.session.Phase() == PhaseQuestion {
		return contract.GenerateRequest{}, 0, ErrNotSubmitting
	}
	req := *last
	if modify != nil {
		modify(&req)
	}
	c.session.recordSubmission(req)
	c.epoch++
	return req, c.epoch, nil
}

func (c *Controller) send(ctx context.Context, epoch uint64, req contract.GenerateRequest) submission.Outcome[submission.Result] {
	out := c.pipeline.Submit(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.logger.Debug("dropping superseded completion", zap.String("state", string(out.State)))
		return out
	}
	switch {
	case out.State == submission.StateSucceeded:
		c.result = out.Value
		c.restored = false
		c.session.phase = PhaseReviewing
		c.session.displayedMode = req.CulturalMode
		// saved under c.mu so a Restart either supersedes this epoch or
		// clears after the write
		if c.cache != nil {
			c.cache.Save(context.WithoutCancel(ctx), out.Value.Cached(c.clock.Now()))
		}
	case c.result != nil:
		// a failed regenerate keeps the previous result on screen
		c.session.phase = PhaseReviewing
	}
	return out
}

// GenerateAudio narrates the displayed result.
func (c *Controller) GenerateAudio(ctx context.Context) (submission.Outcome[submission.Audio], error) {
	res := c.Result()
	if res == nil {
		return submission.Outcome[submission.Audio]{}, ErrNoResult
	}
	return c.audio.Generate(ctx, res.PoemLines, res.Affirmations), nil
}

// SaveAudio writes the generated narration to path, or to
// DefaultAudioFileName in the working directory when path is empty.
func (c *Controller) SaveAudio(path string) (string, error) {
	out := c.audio.Outcome()
	if out.State != submission.StateSucceeded || out.Value == nil {
		return "", ErrNoAudio
	}
	if path == "" {
		path = DefaultAudioFileName
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create audio directory: %w", err)
		}
	}
	if err := os.WriteFile(path, out.Value.Data, 0o644); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	return path, nil
}

func (c *Controller) CancelSubmission() bool { return c.pipeline.Cancel() }

func (c *Controller) CancelAudio() bool { return c.audio.Cancel() }

// ReturnToQuiz leaves Submitting for the last question with answers kept.
func (c *Controller) ReturnToQuiz() error {
	c.mu.Lock()
	if c.session.Phase() != PhaseSubmitting {
		c.mu.Unlock()
		return ErrNotSubmitting
	}
	c.epoch++
	c.session.ReturnToQuiz()
	c.result = nil
	c.restored = false
	c.mu.Unlock()

	c.pipeline.Reset()
	c.audio.Reset()
	return nil
}

// Restart discards the session, both outcomes and the cached result.
func (c *Controller) Restart(ctx context.Context) {
	c.mu.Lock()
	c.epoch++
	c.session.Reset()
	c.result = nil
	c.restored = false
	c.mu.Unlock()

	c.pipeline.Reset()
	c.audio.Reset()
	if c.cache != nil {
		c.cache.Clear(ctx)
	}
	c.logger.Info("restarted")
}

// RestoreCached shows the cached result from an earlier run, when there is
// one and nothing has been answered yet. Regenerate and SwitchTradition stay
// unavailable until a new submission.
func (c *Controller) RestoreCached(ctx context.Context) bool {
	if c.cache == nil {
		return false
	}
	rec := c.cache.Load(ctx)
	if rec == nil {
		return false
	}
	lines := submission.NonBlank(*rec.Poem)
	if len(lines) == 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result != nil || c.session.Answers().Len() > 0 || c.session.Phase() != PhaseQuestion {
		return false
	}
	c.result = &submission.Result{
		PoemLines:    lines,
		Affirmations: submission.NonBlank(*rec.Affirmations),
		CulturalMode: rec.CulturalMode,
		Themes:       rec.Themes,
	}
	c.restored = true
	c.logger.Info("restored cached result", zap.Time("saved_at", rec.SavedAt))
	return true
}
