// Package transcribe converts audio narration into text plus time-stamped
// segments using Groq's OpenAI-compatible transcription API.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-slidecast/internal/apierr"
	"github.com/alnah/go-slidecast/internal/segment"
)

// Groq transcription configuration.
const (
	// GroqBaseURL is the OpenAI-compatible endpoint of the Groq API.
	GroqBaseURL = "https://api.groq.com/openai/v1"

	// ModelWhisperLargeV3Turbo is the fast whisper variant used for narration.
	ModelWhisperLargeV3Turbo = "whisper-large-v3-turbo"
)

// Default retry configuration.
const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// SupportedFormats lists the audio container formats accepted for upload.
var SupportedFormats = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".flac": true,
	".aac":  true,
	".m4a":  true,
}

// IsSupportedFormat reports whether the file extension of path is an
// accepted audio format.
func IsSupportedFormat(path string) bool {
	return SupportedFormats[strings.ToLower(filepath.Ext(path))]
}

// Transcript is the full transcription result: plain text for display and
// translation, plus the ordered segments driving the visual timeline.
type Transcript struct {
	Text     string
	Language string
	Duration float64 // seconds, as reported by the transcription service
	Segments []segment.Segment
}

// Options configures transcription behavior.
type Options struct {
	// Prompt provides context to improve transcription accuracy
	// (domain vocabulary, expected spellings).
	Prompt string

	// Language is an optional ISO 639-1 hint. Empty means auto-detect.
	Language string
}

// Transcriber transcribes audio files to text with segments.
type Transcriber interface {
	// Transcribe converts an audio file into a Transcript.
	// audioPath must be in a supported format (see SupportedFormats).
	Transcribe(ctx context.Context, audioPath string, opts Options) (Transcript, error)
}

// audioTranscriber is an internal interface for the transcription call.
// *openai.Client implements this implicitly; tests inject mocks.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber      = (*GroqTranscriber)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// NewGroqClient creates an openai.Client pointed at the Groq API.
func NewGroqClient(apiKey string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = GroqBaseURL
	return openai.NewClientWithConfig(cfg)
}

// GroqTranscriber transcribes audio using Groq's whisper deployment.
// It retries transient errors with exponential backoff.
type GroqTranscriber struct {
	client     audioTranscriber
	model      string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// TranscriberOption configures a GroqTranscriber.
type TranscriberOption func(*GroqTranscriber)

// WithModel sets the transcription model.
func WithModel(model string) TranscriberOption {
	return func(t *GroqTranscriber) {
		if model != "" {
			t.model = model
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) TranscriberOption {
	return func(t *GroqTranscriber) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) TranscriberOption {
	return func(t *GroqTranscriber) {
		if base > 0 {
			t.baseDelay = base
		}
		if max > 0 {
			t.maxDelay = max
		}
	}
}

// NewGroqTranscriber creates a GroqTranscriber around an injected client.
func NewGroqTranscriber(client audioTranscriber, opts ...TranscriberOption) *GroqTranscriber {
	t := &GroqTranscriber{
		client:     client,
		model:      ModelWhisperLargeV3Turbo,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe requests a verbose transcription so the response carries
// per-segment timestamps, then normalizes it into a Transcript.
func (t *GroqTranscriber) Transcribe(ctx context.Context, audioPath string, opts Options) (Transcript, error) {
	if !IsSupportedFormat(audioPath) {
		return Transcript{}, fmt.Errorf("%s: %w", filepath.Ext(audioPath), ErrUnsupportedFormat)
	}

	req := openai.AudioRequest{
		Model:       t.model,
		FilePath:    audioPath,
		Format:      openai.AudioResponseFormatVerboseJSON,
		Prompt:      opts.Prompt,
		Language:    opts.Language,
		Temperature: 0, // deterministic output for reproducibility
	}

	cfg := apierr.RetryConfig{
		MaxRetries: t.maxRetries,
		BaseDelay:  t.baseDelay,
		MaxDelay:   t.maxDelay,
	}

	resp, err := apierr.RetryWithBackoff(ctx, cfg, func() (openai.AudioResponse, error) {
		resp, err := t.client.CreateTranscription(ctx, req)
		if err != nil {
			return openai.AudioResponse{}, classifyError(err)
		}
		return resp, nil
	}, apierr.IsRetryable)
	if err != nil {
		return Transcript{}, err
	}

	return toTranscript(resp), nil
}

// toTranscript normalizes the verbose API response. Segment text is trimmed:
// whisper pads each span with a leading space.
func toTranscript(resp openai.AudioResponse) Transcript {
	segments := make([]segment.Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, segment.Segment{
			Start: s.Start,
			End:   s.End,
			Text:  strings.TrimSpace(s.Text),
		})
	}
	return Transcript{
		Text:     strings.TrimSpace(resp.Text),
		Language: resp.Language,
		Duration: resp.Duration,
		Segments: segments,
	}
}

// classifyError maps API errors to apierr sentinels.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			// Quota exhaustion is a billing issue, not a transient limit.
			if strings.Contains(apiErr.Message, "quota") ||
				strings.Contains(apiErr.Message, "billing") {
				return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrRateLimit)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout,
			http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrTimeout)
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrBadRequest)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	return err
}
