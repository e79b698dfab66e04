// Package imagegen renders one raster image per prompt through the
// text-to-image service. Prompts are independent, so generation fans out in
// parallel, but results always come back in prompt order because the
// timeline requires image/segment correspondence by index.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-slidecast/internal/apierr"
)

// DefaultEndpoint is the text-to-image service.
const DefaultEndpoint = "https://habib926653-stabilityai-stable-diffusion-3-5-large-turbo.hf.space/generate"

// MaxRecommendedParallel is the recommended upper limit for concurrent
// image requests. Diffusion inference is slow and heavily rate limited;
// higher values mostly convert into 429 responses.
const MaxRecommendedParallel = 4

// Default retry and HTTP configuration. Each prompt retries in isolation,
// so one flaky generation does not force regenerating its siblings.
const (
	defaultMaxRetries  = 2
	defaultBaseDelay   = 2 * time.Second
	defaultMaxDelay    = 30 * time.Second
	defaultHTTPTimeout = 5 * time.Minute

	// maxImageSize caps image downloads (diffusion PNGs are a few MB).
	maxImageSize = 32 << 20
)

// Image is one generated picture, paired with the prompt that produced it.
type Image struct {
	Prompt string
	Path   string
}

// Generator produces a raster image for a text prompt.
type Generator interface {
	// Generate returns the raw image bytes (PNG) for the prompt.
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// httpDoer abstracts the HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time interface compliance check.
var _ Generator = (*HTTPGenerator)(nil)

// HTTPGenerator calls the text-to-image service over HTTP with bearer auth.
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

// WithMaxRetries sets the maximum number of retry attempts per prompt.
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

// NewHTTPGenerator creates an image-generation client. token is the HF_TOKEN
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

// generateRequest is the service request payload.
type generateRequest struct {
	Prompt string `json:"prompt"`
}

// Generate renders a single prompt, retrying transient failures in
// isolation.
func (g *HTTPGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	cfg := apierr.RetryConfig{
		MaxRetries: g.maxRetries,
		BaseDelay:  g.baseDelay,
		MaxDelay:   g.maxDelay,
	}

	return apierr.RetryWithBackoff(ctx, cfg, func() ([]byte, error) {
		return g.callAPI(ctx, prompt)
	}, apierr.IsRetryable)
}

// callAPI issues a single POST request and returns the image bytes.
func (g *HTTPGenerator) callAPI(ctx context.Context, prompt string) (_ []byte, err error) {
	body, err := json.Marshal(generateRequest{Prompt: prompt})
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

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, data)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image payload: %w", apierr.ErrBadResponse)
	}

	return data, nil
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

// GenerateAll renders every prompt into dir as zero-padded index-named PNG
// files and returns the images in prompt order.
//
// Generation runs in parallel up to maxParallel, each prompt retrying its
// own transient failures. A prompt that still fails aborts the batch: the
// error names the failed prompt, already-written sibling images stay intact
// on disk, and no placeholder is substituted. The caller decides whether to
// rerun the stage.
func GenerateAll(
	ctx context.Context,
	prompts []string,
	g Generator,
	dir string,
	maxParallel int,
) ([]Image, error) {
	if len(prompts) == 0 {
		return nil, ErrNoPrompts
	}

	if maxParallel < 1 {
		maxParallel = 1
	}

	images := make([]Image, len(prompts))
	sem := make(chan struct{}, maxParallel)

	grp, ctx := errgroup.WithContext(ctx)

	for i, p := range prompts {
		i, p := i, p
		grp.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			data, err := g.Generate(ctx, p)
			if err != nil {
				return fmt.Errorf("prompt %d (%q): %w", i, p, err)
			}

			path := filepath.Join(dir, fmt.Sprintf("%03d.png", i))
			if err := os.WriteFile(path, data, 0o600); err != nil {
				return fmt.Errorf("write image %d: %w", i, err)
			}

			images[i] = Image{Prompt: p, Path: path}
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}

	return images, nil
}

// Paths extracts the file paths from images, in order.
func Paths(images []Image) []string {
	paths := make([]string, len(images))
	for i, img := range images {
		paths[i] = img.Path
	}
	return paths
}
