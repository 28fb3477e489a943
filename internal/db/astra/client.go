// Package astra is a client for the managed vector database's JSON Data API.
package astra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tribe/internal/domain"
	"github.com/kailas-cloud/tribe/internal/metrics"
)

// MetadataPrefix is the document path under which node metadata lives.
const MetadataPrefix = "metadata."

// maxErrorBody caps how much of a failed response is kept in errors.
const maxErrorBody = 2048

// Store talks to one collection of the Data API.
type Store struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.http = c }
}

// NewStore validates cfg and returns a Store.
func NewStore(cfg Config, logger *zap.Logger, opts ...Option) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("vector store config: %w: %w", domain.ErrConfiguration, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.RequestTimeout},
		logger: logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Config returns the effective configuration.
func (s *Store) Config() Config { return s.cfg }

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Status json.RawMessage `json:"status"`
	Errors []ErrorDetail   `json:"errors"`
}

// command posts {name: payload} to url and decodes the response envelope.
func (s *Store) command(ctx context.Context, url, name string, payload any) (*envelope, error) {
	start := time.Now()
	env, err := s.send(ctx, url, name, payload)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.VectorRequestsTotal.WithLabelValues(name, status).Inc()
	metrics.VectorRequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		s.logger.Debug("Data API command failed", zap.String("command", name), zap.Error(err))
		return nil, err
	}
	return env, nil
}

func (s *Store) send(ctx context.Context, url, name string, payload any) (*envelope, error) {
	body, err := json.Marshal(map[string]any{name: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", name, err)
	}
	req.Header.Set("Token", s.cfg.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Err: fmt.Errorf("%s: %w", name, err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read %s response: %w", name, err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.TransportError{StatusCode: resp.StatusCode, Err: errors.New(truncate(raw))}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s: %w", name, &domain.DecodeError{Raw: truncate(raw), Err: err})
	}
	if len(env.Errors) > 0 {
		return nil, &APIError{Command: name, Errors: env.Errors}
	}
	return &env, nil
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
