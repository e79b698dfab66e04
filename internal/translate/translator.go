// Package translate calls the translator agent service to turn the full
// transcript into English before prompt generation. The service replies with
// a marker string instead of a translation when the input is already
// English.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alnah/go-slidecast/internal/apierr"
)

// DefaultEndpoint is the translator agent service.
const DefaultEndpoint = "https://habib926653-text-translator-agent-api.hf.space/generate"

// alreadyEnglishMarker appears in the service output when no translation
// was needed.
const alreadyEnglishMarker = "Already in English"

// Default retry and HTTP configuration.
const (
	defaultMaxRetries  = 3
	defaultBaseDelay   = 1 * time.Second
	defaultMaxDelay    = 30 * time.Second
	defaultHTTPTimeout = 2 * time.Minute

	// maxResponseSize caps response reads to prevent OOM on malformed replies.
	maxResponseSize = 4 << 20
)

// IsAlreadyEnglish reports whether the translation output is the service's
// "no translation needed" marker.
func IsAlreadyEnglish(output string) bool {
	return strings.Contains(output, alreadyEnglishMarker)
}

// Translator translates transcript text to English.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// httpDoer abstracts the HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time interface compliance check.
var _ Translator = (*HTTPTranslator)(nil)

// HTTPTranslator calls the translator agent over HTTP with bearer auth.
// Transient failures are retried with exponential backoff.
type HTTPTranslator struct {
	endpoint   string
	token      string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	httpClient httpDoer
}

// Option configures an HTTPTranslator.
type Option func(*HTTPTranslator)

// WithEndpoint sets a custom service endpoint (for testing or proxies).
func WithEndpoint(endpoint string) Option {
	return func(t *HTTPTranslator) {
		t.endpoint = strings.TrimSuffix(endpoint, "/")
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) Option {
	return func(t *HTTPTranslator) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(t *HTTPTranslator) {
		if base > 0 {
			t.baseDelay = base
		}
		if max > 0 {
			t.maxDelay = max
		}
	}
}

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(c httpDoer) Option {
	return func(t *HTTPTranslator) {
		t.httpClient = c
	}
}

// NewHTTPTranslator creates a translator client. token is the HF_TOKEN used
// as a bearer credential.
func NewHTTPTranslator(token string, opts ...Option) *HTTPTranslator {
	t := &HTTPTranslator{
		endpoint:   DefaultEndpoint,
		token:      token,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.httpClient == nil {
		t.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return t
}

// translationResponse is the service reply envelope.
type translationResponse struct {
	Output string `json:"output"`
}

// Translate sends the transcript and returns the translated text (or the
// already-English marker output, see IsAlreadyEnglish).
func (t *HTTPTranslator) Translate(ctx context.Context, text string) (string, error) {
	cfg := apierr.RetryConfig{
		MaxRetries: t.maxRetries,
		BaseDelay:  t.baseDelay,
		MaxDelay:   t.maxDelay,
	}

	return apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		return t.callAPI(ctx, text)
	}, apierr.IsRetryable)
}

// callAPI issues a single GET request with the text as a query parameter.
func (t *HTTPTranslator) callAPI(ctx context.Context, text string) (_ string, err error) {
	u := t.endpoint + "?" + url.Values{"text": {text}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.token)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close response body: %w", closeErr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, body)
	}

	var result translationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", apierr.ErrBadResponse)
	}
	if result.Output == "" {
		return "", fmt.Errorf("response has no output field: %w", apierr.ErrBadResponse)
	}

	return result.Output, nil
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
