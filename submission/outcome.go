package submission

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/AlhasanIQ/oriki/contract"
)

type State string

const (
	StateIdle      State = "idle"
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

type ErrorKind string

const (
	ErrTimeout     ErrorKind = "timeout"
	ErrNetwork     ErrorKind = "network"
	ErrServer      ErrorKind = "server"
	ErrEmptyResult ErrorKind = "empty_result"
)

const (
	NetworkMessage     = "Cannot connect to the server. Please make sure the backend is running."
	TimeoutMessage     = "The request took too long. Please try again."
	EmptyResultMessage = "The service returned an empty result. Please try again."
	GenericMessage     = "An unexpected error occurred. Please try again."
)

// Failure is a typed, user-presentable failure of one attempt.
type Failure struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// UserMessage is the text shown to the user. Server and empty-result
// failures share the same presentation.
func (f *Failure) UserMessage() string {
	if f == nil {
		return ""
	}
	if f.Message != "" {
		return f.Message
	}
	switch f.Kind {
	case ErrTimeout:
		return TimeoutMessage
	case ErrNetwork:
		return NetworkMessage
	case ErrEmptyResult:
		return EmptyResultMessage
	default:
		return GenericMessage
	}
}

// Outcome is the single observable status of one pipeline. Value is set only
// when State is StateSucceeded and Failure only when State is StateFailed.
type Outcome[T any] struct {
	State     State
	StartedAt time.Time
	Slow      bool
	Value     *T
	Failure   *Failure
}

// Result is a normalized generation response.
type Result struct {
	PoemLines    []string
	Affirmations []string
	CulturalMode string
	StyleNotes   string
	FocusAreas   []string
	Themes       json.RawMessage
}

func (r Result) Cached(savedAt time.Time) contract.CachedResult {
	poem := append([]string{}, r.PoemLines...)
	affirmations := append([]string{}, r.Affirmations...)
	return contract.CachedResult{
		Poem:         &poem,
		Affirmations: &affirmations,
		CulturalMode: r.CulturalMode,
		Themes:       r.Themes,
		SavedAt:      savedAt.UTC(),
	}
}

// Audio is a decoded narration artifact.
type Audio struct {
	Data            []byte
	DurationSeconds float64
	Voice           string
}

type Event string

const (
	EventPending  Event = "pending"
	EventSlow     Event = "slow"
	EventFinished Event = "finished"
)
