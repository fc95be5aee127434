package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/benrubinchik/podflow/internal/config"
	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/services"
)

const (
	defaultAPIBaseURL     = "https://api.openai.com/v1/audio/transcriptions"
	defaultAPITimeout     = 10 * time.Minute
	defaultRetryAttempts  = 5
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 30 * time.Second
)

// APITranscriber calls the hosted Whisper transcription endpoint.
type APITranscriber struct {
	cfg        config.Transcription
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// APIOption customizes the API transcriber.
type APIOption func(*APITranscriber)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) APIOption {
	return func(t *APITranscriber) {
		if client != nil {
			t.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count.
func WithRetryMaxAttempts(attempts int) APIOption {
	return func(t *APITranscriber) {
		t.retryMaxAttempts = attempts
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) APIOption {
	return func(t *APITranscriber) {
		t.sleeper = sleeper
	}
}

// NewAPITranscriber constructs the whisper_api backend.
func NewAPITranscriber(cfg config.Transcription, opts ...APIOption) *APITranscriber {
	t := &APITranscriber{
		cfg:              cfg,
		httpClient:       &http.Client{Timeout: defaultAPITimeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	if strings.TrimSpace(t.cfg.BaseURL) == "" {
		t.cfg.BaseURL = defaultAPIBaseURL
	}
	if strings.TrimSpace(t.cfg.Model) == "" {
		t.cfg.Model = "whisper-1"
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type verboseResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("transcription request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Transcribe uploads the audio file and decodes the verbose JSON response.
// Rate-limit and server errors are retried with exponential backoff.
func (t *APITranscriber) Transcribe(ctx context.Context, audioPath string) (*episode.Transcript, error) {
	attempts := t.retryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		transcript, err := t.sendOnce(ctx, audioPath)
		if err == nil {
			return transcript, nil
		}
		lastErr = err
		if !t.retriable(ctx, err) || attempt == attempts {
			break
		}
		if err := t.sleep(ctx, t.backoffDelay(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, services.Wrap(services.ErrTransient, "transcribe", "api",
		fmt.Sprintf("transcription failed after %d attempts", attempts), lastErr)
}

func (t *APITranscriber) sendOnce(ctx context.Context, audioPath string) (*episode.Transcript, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	fields := map[string]string{
		"model":           t.cfg.Model,
		"response_format": "verbose_json",
	}
	if lang := strings.TrimSpace(t.cfg.Language); lang != "" {
		fields["language"] = lang
	}
	if prompt := strings.TrimSpace(t.cfg.Prompt); prompt != "" {
		fields["prompt"] = prompt
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL, &body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: string(payload)}
	}

	var decoded verboseResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return fromVerbose(decoded), nil
}

func fromVerbose(resp verboseResponse) *episode.Transcript {
	transcript := &episode.Transcript{
		Text:     strings.TrimSpace(resp.Text),
		Language: strings.TrimSpace(resp.Language),
		Segments: make([]episode.Segment, 0, len(resp.Segments)),
	}
	for _, seg := range resp.Segments {
		transcript.Segments = append(transcript.Segments, episode.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return transcript
}

func (t *APITranscriber) retriable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}
	// Connectivity failures surface as url.Error wrapped transport errors.
	return strings.Contains(err.Error(), "http error")
}

func (t *APITranscriber) backoffDelay(attempt int) time.Duration {
	delay := t.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > t.retryMaxDelay/2 {
			return t.retryMaxDelay
		}
		delay *= 2
	}
	return delay
}

func (t *APITranscriber) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if t.sleeper != nil {
		t.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
