package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AlhasanIQ/oriki/config"
	"github.com/AlhasanIQ/oriki/contract"
)

const (
	generatePath  = "/api/v1/generate"
	audioPath     = "/api/v1/audio"
	questionsPath = "/api/v1/quiz/questions"
	healthPath    = "/health"

	maxErrorBody = 2048
)

// APIProvider talks JSON over HTTP to the Oríkì service.
type APIProvider struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewAPI(baseURL string, logger *zap.Logger) (*APIProvider, error) {
	base, err := config.NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIProvider{
		baseURL: strings.TrimRight(base, "/"),
		client: &http.Client{
			Transport: http.DefaultTransport,
		},
		logger: logger.Named("api"),
	}, nil
}

func (p *APIProvider) Name() string { return "oriki-api" }

func (p *APIProvider) BaseURL() string { return p.baseURL }

func (p *APIProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

func (p *APIProvider) Generate(ctx context.Context, req contract.GenerateRequest) (contract.GenerateResponse, error) {
	var out contract.GenerateResponse
	if err := p.do(ctx, http.MethodPost, generatePath, req, &out); err != nil {
		return contract.GenerateResponse{}, err
	}
	return out, nil
}

func (p *APIProvider) Audio(ctx context.Context, req contract.AudioRequest) (contract.AudioResponse, error) {
	var out contract.AudioResponse
	if err := p.do(ctx, http.MethodPost, audioPath, req, &out); err != nil {
		return contract.AudioResponse{}, err
	}
	return out, nil
}

func (p *APIProvider) Questions(ctx context.Context) (contract.QuestionsResponse, error) {
	var out contract.QuestionsResponse
	if err := p.do(ctx, http.MethodGet, questionsPath, nil, &out); err != nil {
		return contract.QuestionsResponse{}, err
	}
	return out, nil
}

func (p *APIProvider) Health(ctx context.Context) (contract.HealthResponse, error) {
	var out contract.HealthResponse
	if err := p.do(ctx, http.MethodGet, healthPath, nil, &out); err != nil {
		return contract.HealthResponse{}, err
	}
	return out, nil
}

func (p *APIProvider) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	reqID := requestIDFrom(ctx)
	if reqID != "" {
		httpReq.Header.Set("X-Request-ID", reqID)
	}

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		p.logger.Debug("request failed",
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return err
	}
	defer resp.Body.Close()

	p.logger.Debug("response",
		zap.String("path", path),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Endpoint: path, StatusCode: resp.StatusCode, Detail: parseDetail(b)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w: %v", path, ErrMalformedResponse, err)
	}
	return nil
}

// parseDetail pulls a human-readable message out of an error body. The
// service sends either {"detail": "..."} or a list of validation errors
// under detail.
func parseDetail(b []byte) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(b, &env); err != nil || len(env.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(env.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(env.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if m := strings.TrimSpace(it.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
