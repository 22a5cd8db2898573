package submission

import (
	"context"
	"sync"
	"time"
)

// flight owns one Outcome slot and the attempts that write to it. Every
// attempt has its own token (run); the first terminal transition of a run
// stops its timers and aborts its request, and only the current run may
// write the slot.
type flight[T any] struct {
	clock   Clock
	soft    time.Duration
	hard    time.Duration
	observe func(Event)

	mu      sync.Mutex
	seq     uint64
	active  *run[T]
	outcome Outcome[T]
}

type run[T any] struct {
	seq      uint64
	cancel   context.CancelFunc
	timers   []Timer
	finished bool
	done     chan Outcome[T]
}

func newFlight[T any](clock Clock, soft, hard time.Duration, observe func(Event)) *flight[T] {
	if clock == nil {
		clock = RealClock()
	}
	return &flight[T]{
		clock:   clock,
		soft:    soft,
		hard:    hard,
		observe: observe,
		outcome: Outcome[T]{State: StateIdle},
	}
}

// do runs fn as a new attempt and blocks until the attempt is terminal. A
// run still in flight is superseded and ends as cancelled.
func (f *flight[T]) do(ctx context.Context, fn func(ctx context.Context) (*T, *Failure)) Outcome[T] {
	reqCtx, cancel := context.WithCancel(ctx)

	f.mu.Lock()
	prev := f.active
	f.seq++
	r := &run[T]{seq: f.seq, cancel: cancel, done: make(chan Outcome[T], 1)}
	f.active = r
	f.outcome = Outcome[T]{State: StatePending, StartedAt: f.clock.Now()}
	if f.soft > 0 && f.soft < f.hard {
		r.timers = append(r.timers, f.clock.AfterFunc(f.soft, func() { f.markSlow(r) }))
	}
	if f.hard > 0 {
		r.timers = append(r.timers, f.clock.AfterFunc(f.hard, func() {
			f.finish(r, Outcome[T]{State: StateFailed, Failure: &Failure{Kind: ErrTimeout, Message: TimeoutMessage}})
		}))
	}
	f.mu.Unlock()

	if prev != nil {
		f.finish(prev, Outcome[T]{State: StateCancelled})
	}
	f.emit(EventPending)

	stopParent := context.AfterFunc(ctx, func() {
		f.finish(r, Outcome[T]{State: StateCancelled})
	})
	defer stopParent()

	go func() {
		v, failure := fn(reqCtx)
		switch {
		case ctx.Err() != nil:
			f.finish(r, Outcome[T]{State: StateCancelled})
		case failure != nil:
			f.finish(r, Outcome[T]{State: StateFailed, Failure: failure})
		default:
			f.finish(r, Outcome[T]{State: StateSucceeded, Value: v})
		}
	}()

	return <-r.done
}

func (f *flight[T]) finish(r *run[T], out Outcome[T]) {
	f.mu.Lock()
	if r.finished {
		f.mu.Unlock()
		return
	}
	r.finished = true
	for _, t := range r.timers {
		t.Stop()
	}
	r.cancel()

	current := f.active == r
	if current {
		out.StartedAt = f.outcome.StartedAt
		out.Slow = f.outcome.Slow
		f.outcome = out
		f.active = nil
	}
	f.mu.Unlock()

	r.done <- out
	if current {
		f.emit(EventFinished)
	}
}

func (f *flight[T]) markSlow(r *run[T]) {
	f.mu.Lock()
	if r.finished || f.active != r {
		f.mu.Unlock()
		return
	}
	f.outcome.Slow = true
	f.mu.Unlock()
	f.emit(EventSlow)
}

// cancel ends the current attempt as cancelled. It reports whether an
// attempt was in flight.
func (f *flight[T]) cancel() bool {
	f.mu.Lock()
	r := f.active
	f.mu.Unlock()
	if r == nil {
		return false
	}
	f.finish(r, Outcome[T]{State: StateCancelled})
	return true
}

// reset aborts any attempt and returns the slot to idle.
func (f *flight[T]) reset() {
	f.mu.Lock()
	r := f.active
	f.active = nil
	f.outcome = Outcome[T]{State: StateIdle}
	f.mu.Unlock()
	if r != nil {
		f.finish(r, Outcome[T]{State: StateCancelled})
	}
}

func (f *flight[T]) snapshot() Outcome[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome
}

func (f *flight[T]) emit(e Event) {
	if f.observe != nil {
		f.observe(e)
	}
}
