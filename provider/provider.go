package provider

import (
	"context"

	"github.com/AlhasanIQ/oriki/contract"
)

// Provider is the remote generation service.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req contract.GenerateRequest) (contract.GenerateResponse, error)
	Audio(ctx context.Context, req contract.AudioRequest) (contract.AudioResponse, error)
	Questions(ctx context.Context) (contract.QuestionsResponse, error)
	Health(ctx context.Context) (contract.HealthResponse, error)
	Close() error
}

type requestIDKey struct{}

// WithRequestID tags outgoing requests made with ctx with an X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
