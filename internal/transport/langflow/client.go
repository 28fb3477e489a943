// Package langflow invokes a hosted flow over HTTP.
package langflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tribe/internal/domain"
	"github.com/kailas-cloud/tribe/internal/domain/tweaks"
	"github.com/kailas-cloud/tribe/internal/metrics"
)

// Defaults for Config.
const (
	DefaultBaseURL  = "https://api.langflow.astra.datastax.com"
	DefaultTimeout  = 60 * time.Second
	DefaultTokenEnv = "ASTRA_DB_VECTOR_TOKEN"
)

// TokenSource resolves the bearer token by variable name. Empty means absent.
type TokenSource func(name string) string

// Config identifies the flow and how to reach it.
type Config struct {
	BaseURL    string
	LangflowID string
	FlowID     string
	InputSlot  tweaks.SlotID
	Timeout    time.Duration
	TokenEnv   string
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.InputSlot == "" {
		c.InputSlot = tweaks.ChatInput
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.TokenEnv == "" {
		c.TokenEnv = DefaultTokenEnv
	}
}

// RunURL is the run endpoint of the configured flow.
func (c Config) RunURL() string {
	return fmt.Sprintf("%s/lf/%s/api/v1/run/%s",
		strings.TrimRight(c.BaseURL, "/"), url.PathEscape(c.LangflowID), url.PathEscape(c.FlowID))
}

// Response is a decoded flow reply. Body is the top-level JSON object.
type Response struct {
	Body map[string]any
	Raw  []byte
}

// Client performs one POST per Run. It never retries.
type Client struct {
	cfg    Config
	http   *http.Client
	token  TokenSource
	logger *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithTokenSource replaces os.Getenv as the token lookup.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithHTTPClient replaces the default HTTP client. Its timeout wins over Config.Timeout.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client. Missing ids surface as configuration errors on Run.
func New(cfg Config, opts ...Option) *Client {
	cfg.applyDefaults()
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		token:  os.Getenv,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type inputValue struct {
	InputValue string `json:"input_value"`
}

type runRequest struct {
	Inputs     map[tweaks.SlotID]inputValue `json:"inputs"`
	OutputType string                       `json:"output_type"`
	InputType  string                       `json:"input_type"`
	Tweaks     tweaks.Map                   `json:"tweaks"`
}

// Run sends message with tw to the flow and decodes the reply.
//
// Errors: domain.ErrConfiguration when the token or flow ids are missing (no request is sent),
// *domain.TransportError on network failure, timeout or non-2xx status,
// *domain.DecodeError on an empty or non-JSON body, *domain.FlowError when the reply
// carries an error field.
func (c *Client) Run(ctx context.Context, message string, tw tweaks.Map) (Response, error) {
	start := time.Now()
	resp, err := c.run(ctx, message, tw)
	metrics.FlowRequestsTotal.WithLabelValues(outcome(err)).Inc()
	metrics.FlowRequestDuration.Observe(time.Since(start).Seconds())
	return resp, err
}

func (c *Client) run(ctx context.Context, message string, tw tweaks.Map) (Response, error) {
	if c.cfg.LangflowID == "" || c.cfg.FlowID == "" {
		return Response{}, fmt.Errorf("langflow_id and flow_id are required: %w", domain.ErrConfiguration)
	}
	token := c.token(c.cfg.TokenEnv)
	if token == "" {
		return Response{}, fmt.Errorf("%s not found in environment: %w", c.cfg.TokenEnv, domain.ErrConfiguration)
	}

	body, err := json.Marshal(runRequest{
		Inputs:     map[tweaks.SlotID]inputValue{c.cfg.InputSlot: {InputValue: message}},
		OutputType: "chat",
		InputType:  "chat",
		Tweaks:     tw,
	})
	if err != nil {
		return Response{}, fmt.Errorf("encode run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RunURL(), bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("build run request: %w", domain.ErrConfiguration)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(req)
	if err != nil {
		return Response{}, &domain.TransportError{Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, &domain.TransportError{StatusCode: httpResp.StatusCode, Err: err}
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return Response{}, &domain.TransportError{
			StatusCode: httpResp.StatusCode,
			Err:        errors.New(http.StatusText(httpResp.StatusCode)),
		}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return Response{}, &domain.DecodeError{Err: errors.New("empty response body")}
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Response{}, &domain.DecodeError{Raw: string(raw), Err: err}
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return Response{}, &domain.DecodeError{Raw: string(raw), Err: errors.New("response is not a JSON object")}
	}

	c.logger.Debug("Flow responded", zap.Int("status", httpResp.StatusCode), zap.Int("bytes", len(raw)))

	if v, present := obj["error"]; present && v != nil {
		return Response{}, &domain.FlowError{Detail: detail(v)}
	}
	return Response{Body: obj, Raw: raw}, nil
}

func detail(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrConfiguration):
		return "config_error"
	case errors.Is(err, domain.ErrDecode):
		return "decode_error"
	case errors.Is(err, domain.ErrFlow):
		return "flow_error"
	default:
		return "transport_error"
	}
}
