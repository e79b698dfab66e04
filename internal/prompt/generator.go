// Package prompt derives one image-description prompt per transcript chunk
// by calling the prompt-generation service. Order is preserved: prompt i
// describes chunk i, and the response is rejected when the cardinality does
// not match.
package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alnah/go-slidecast/internal/apierr"
)

// DefaultEndpoint is the prompt-generation service.
const DefaultEndpoint = "https://habib926653-text-translator-agent-api.hf.space/generate-prompts"

// Default retry and HTTP configuration.
const (
	defaultMaxRetries  = 3
	defaultBaseDelay   = 1 * time.Second
	defaultMaxDelay    = 30 * time.Second
	defaultHTTPTimeout = 3 * time.Minute

	// maxResponseSize caps response reads to prevent OOM on malformed replies.
	maxResponseSize = 4 << 20
)

// Generator produces image prompts from transcript chunks.
type Generator interface {
	// Generate returns one prompt per chunk, order preserved.
	Generate(ctx context.Context, chunks []string) ([]string, error)
}

// httpDoer abstracts the HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time interface compliance check.
var _ Generator = (*HTTPGenerator)(nil)

// HTTPGenerator calls the prompt-generation service over HTTP.
type HTTPGenerator struct {
	endpoint   string
	token      string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	httpClient httpDoer
}

// Option configures an HTTPGenerator.
type Option func(*HTTPGenerator)

// WithEndpoint sets a custom service endpoint (for testing or proxies).
func WithEndpoint(endpoint string) Option {
	return func(g *HTTPGenerator) {
		g.endpoint = strings.TrimSuffix(endpoint, "/")
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) Option {
	return func(g *HTTPGenerator) {
		if n >= 0 {
			g.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(g *HTTPGenerator) {
		if base > 0 {
			g.baseDelay = base
		}
		if max > 0 {
			g.maxDelay = max
		}
	}
}

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(c httpDoer) Option {
	return func(g *HTTPGenerator) {
		g.httpClient = c
	}
}

// NewHTTPGenerator creates a prompt-generation client. token is the HF_TOKEN
// used as a bearer credential.
func NewHTTPGenerator(token string, opts ...Option) *HTTPGenerator {
	g := &HTTPGenerator{
		endpoint:   DefaultEndpoint,
		token:      token,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.httpClient == nil {
		g.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return g
}

// promptRequest is the service request payload.
type promptRequest struct {
	TextInput []string `json:"text_input"`
}

// promptResponse is the service reply envelope.
type promptResponse struct {
	ImagePrompts []string `json:"image_prompts"`
}

// Generate sends all chunks in one request and returns the prompts in chunk
// order. Returns ErrNoChunks for empty input and wraps
// apierr.ErrBadResponse when the prompt count differs from the chunk count.
func (g *HTTPGenerator) Generate(ctx context.Context, chunks []string) ([]string, error) {
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}

	cfg := apierr.RetryConfig{
		MaxRetries: g.maxRetries,
		BaseDelay:  g.baseDelay,
		MaxDelay:   g.maxDelay,
	}

	return apierr.RetryWithBackoff(ctx, cfg, func() ([]string, error) {
		return g.callAPI(ctx, chunks)
	}, apierr.IsRetryable)
}

// callAPI issues a single POST request with the chunk list.
func (g *HTTPGenerator) callAPI(ctx context.Context, chunks []string) (_ []string, err error) {
	body, err := json.Marshal(promptRequest{TextInput: chunks})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close response body: %w", closeErr)
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, respBody)
	}

	var result promptResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", apierr.ErrBadResponse)
	}
	if len(result.ImagePrompts) != len(chunks) {
		return nil, fmt.Errorf("got %d prompts for %d chunks: %w",
			len(result.ImagePrompts), len(chunks), apierr.ErrBadResponse)
	}

	return result.ImagePrompts, nil
}

// classifyStatus maps HTTP error statuses to apierr sentinels.
func classifyStatus(statusCode int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		return fmt.Errorf("HTTP %d: %s: %w", statusCode, msg, apierr.ErrRateLimit)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("HTTP %d: %s: %w", statusCode, msg, apierr.ErrAuthFailed)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout,
		http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return fmt.Errorf("HTTP %d: %s: %w", statusCode, msg, apierr.ErrTimeout)
	default:
		return fmt.Errorf("HTTP %d: %s: %w", statusCode, msg, apierr.ErrBadRequest)
	}
}
