// Package youtube uploads episode video with the resumable upload protocol:
// a session is opened with the video metadata, then the file is sent in
// fixed-size chunks, retrying transient failures with exponential backoff.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benrubinchik/podflow/internal/logging"
	"github.com/benrubinchik/podflow/internal/services"
)

const (
	defaultUploadURL  = "https://www.googleapis.com/upload/youtube/v3/videos"
	defaultChunkSize  = 10 << 20 // 10 MiB
	defaultMaxRetries = 5
	contentType       = "video/mp4"
)

// Uploader performs chunked resumable uploads.
type Uploader struct {
	httpClient *http.Client
	baseURL    string
	chunkSize  int64
	maxRetries int
	logger     *slog.Logger

	jitter  func() float64
	sleeper func(time.Duration)
}

// UploaderOption customizes the uploader.
type UploaderOption func(*Uploader)

// WithBaseURL overrides the upload endpoint.
func WithBaseURL(url string) UploaderOption {
	return func(u *Uploader) {
		if url != "" {
			u.baseURL = url
		}
	}
}

// WithChunkSize overrides the chunk size in bytes.
func WithChunkSize(size int64) UploaderOption {
	return func(u *Uploader) {
		if size > 0 {
			u.chunkSize = size
		}
	}
}

// WithMaxRetries overrides the retry budget.
func WithMaxRetries(retries int) UploaderOption {
	return func(u *Uploader) {
		if retries > 0 {
			u.maxRetries = retries
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) UploaderOption {
	return func(u *Uploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithJitter overrides the jitter source (useful for tests).
func WithJitter(jitter func() float64) UploaderOption {
	return func(u *Uploader) {
		if jitter != nil {
			u.jitter = jitter
		}
	}
}

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) UploaderOption {
	return func(u *Uploader) {
		if sleeper != nil {
			u.sleeper = sleeper
		}
	}
}

// NewUploader constructs an Uploader. The client must carry OAuth credentials
// for the upload scope.
func NewUploader(client *http.Client, opts ...UploaderOption) *Uploader {
	if client == nil {
		client = http.DefaultClient
	}
	u := &Uploader{
		httpClient: client,
		baseURL:    defaultUploadURL,
		chunkSize:  defaultChunkSize,
		maxRetries: defaultMaxRetries,
		logger:     logging.NewNop(),
		jitter:     rand.Float64,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// retriableError marks a failure worth retrying: server-side 5xx responses
// and transport-level connectivity errors.
type retriableError struct {
	cause error
}

func (e *retriableError) Error() string { return e.cause.Error() }
func (e *retriableError) Unwrap() error { return e.cause }

var retriableStatuses = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Progress reports fractional completion of an in-flight upload.
type Progress struct {
	SentBytes  int64
	TotalBytes int64
}

// Fraction returns completion in [0, 1].
func (p Progress) Fraction() float64 {
	if p.TotalBytes <= 0 {
		return 0
	}
	return float64(p.SentBytes) / float64(p.TotalBytes)
}

// Upload sends the file at path in chunks and returns the assigned video ID.
// Chunk progress is not persisted across process restarts; a killed upload
// starts over on the next run.
func (u *Uploader) Upload(ctx context.Context, path string, video Video, onProgress func(Progress)) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "upload_youtube", "open",
			fmt.Sprintf("open video %s", path), err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat video %s: %w", path, err)
	}
	total := info.Size()
	if total == 0 {
		return "", services.Wrap(services.ErrValidation, "upload_youtube", "open",
			"video file is empty", nil)
	}

	sessionURL, err := u.startSession(ctx, video, total)
	if err != nil {
		return "", err
	}
	u.logger.Info("upload session opened",
		logging.Int64("total_bytes", total),
		logging.Int64("chunk_bytes", u.chunkSize))

	var offset int64
	retries := 0
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		var videoID string
		var nextOffset int64
		var err error
		if offset >= total {
			// Every byte is already on the server, which happens when the
			// final chunk's acknowledgment was lost. Ask for the result
			// instead of sending an empty chunk with a malformed range.
			videoID, nextOffset, err = u.queryStatus(ctx, sessionURL, offset, total)
		} else {
			videoID, nextOffset, err = u.sendChunk(ctx, sessionURL, file, offset, total)
		}
		switch {
		case err == nil && videoID != "":
			if onProgress != nil {
				onProgress(Progress{SentBytes: total, TotalBytes: total})
			}
			return videoID, nil
		case err == nil && nextOffset > offset:
			offset = nextOffset
			retries = 0
			if onProgress != nil {
				onProgress(Progress{SentBytes: offset, TotalBytes: total})
			}
		default:
			if err == nil {
				err = &retriableError{cause: errors.New("server reported no upload progress")}
			}
			var retriable *retriableError
			if !errors.As(err, &retriable) {
				return "", err
			}
			retries++
			if retries > u.maxRetries {
				return "", services.Wrap(services.ErrTransient, "upload_youtube", "chunk",
					fmt.Sprintf("upload failed after %d retries", u.maxRetries), retriable.cause)
			}
			delay := u.backoff(retries)
			u.logger.Warn("retriable upload failure",
				logging.Int("attempt", retries),
				logging.Duration("backoff", delay),
				logging.Error(retriable.cause))
			if err := u.sleep(ctx, delay); err != nil {
				return "", err
			}
			recoveredID, recovered, err := u.queryStatus(ctx, sessionURL, offset, total)
			if err == nil && recoveredID != "" {
				if onProgress != nil {
					onProgress(Progress{SentBytes: total, TotalBytes: total})
				}
				return recoveredID, nil
			}
			if err == nil && recovered > offset {
				offset = recovered
			}
		}
	}
}

// startSession opens a resumable session and returns its upload URL from the
// Location header.
func (u *Uploader) startSession(ctx context.Context, video Video, total int64) (string, error) {
	body, err := json.Marshal(video.requestBody())
	if err != nil {
		return "", fmt.Errorf("encode video metadata: %w", err)
	}
	url := u.baseURL + "?uploadType=resumable&part=snippet,status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(total, 10))
	req.Header.Set("X-Upload-Content-Type", contentType)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "upload_youtube", "session",
			"could not open upload session", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", services.Wrap(services.ErrExternalTool, "upload_youtube", "session",
			fmt.Sprintf("session rejected: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))), nil)
	}
	location := resp.Header.Get("Location")
	if location == "" {
		return "", services.Wrap(services.ErrExternalTool, "upload_youtube", "session",
			"session response missing Location header", nil)
	}
	return location, nil
}

// sendChunk uploads one chunk starting at offset. On final acknowledgment it
// returns the video ID; on 308 it returns the next offset the server expects.
func (u *Uploader) sendChunk(ctx context.Context, sessionURL string, file *os.File, offset, total int64) (string, int64, error) {
	size := u.chunkSize
	if remaining := total - offset; remaining < size {
		size = remaining
	}
	chunk := io.NewSectionReader(file, offset, size)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURL, chunk)
	if err != nil {
		return "", 0, fmt.Errorf("new chunk request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, offset+size-1, total))

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", 0, &retriableError{cause: fmt.Errorf("chunk transport: %w", err)}
	}
	defer resp.Body.Close()
	return u.decodeChunkResponse(resp, offset, size)
}

func (u *Uploader) decodeChunkResponse(resp *http.Response, offset, size int64) (string, int64, error) {
	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var result struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return "", 0, fmt.Errorf("decode upload response: %w", err)
		}
		if result.ID == "" {
			return "", 0, errors.New("upload response missing video id")
		}
		return result.ID, 0, nil

	case resp.StatusCode == 308:
		next := offset + size
		if confirmed, ok := parseRangeHeader(resp.Header.Get("Range")); ok {
			next = confirmed + 1
		}
		return "", next, nil

	case retriableStatuses[resp.StatusCode]:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", 0, &retriableError{cause: fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))}

	default:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", 0, services.Wrap(services.ErrExternalTool, "upload_youtube", "chunk",
			fmt.Sprintf("upload rejected: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))), nil)
	}
}

// queryStatus asks the server how much of the upload it has, so a retry can
// continue from the confirmed position instead of resending accepted bytes.
// A server that already holds every byte answers the query with the final
// 200/201 response, in which case the video ID is returned.
func (u *Uploader) queryStatus(ctx context.Context, sessionURL string, offset, total int64) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURL, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Range", fmt.Sprintf("bytes */%d", total))

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", 0, &retriableError{cause: fmt.Errorf("status query transport: %w", err)}
	}
	defer resp.Body.Close()
	return u.decodeChunkResponse(resp, offset, 0)
}

// parseRangeHeader extracts the last confirmed byte from "bytes=0-N".
func parseRangeHeader(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	value = strings.TrimPrefix(value, "bytes=")
	idx := strings.LastIndexByte(value, '-')
	if idx < 0 {
		return 0, false
	}
	last, err := strconv.ParseInt(value[idx+1:], 10, 64)
	if err != nil || last < 0 {
		return 0, false
	}
	return last, true
}

// backoff computes the wait before retry attempt k: 2^k seconds plus a
// uniform [0,1) second jitter term. The retry-count cap is the only ceiling.
func (u *Uploader) backoff(attempt int) time.Duration {
	base := float64(int64(1) << uint(attempt))
	return time.Duration((base + u.jitter()) * float64(time.Second))
}

func (u *Uploader) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if u.sleeper != nil {
		u.sleeper(delay)
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
