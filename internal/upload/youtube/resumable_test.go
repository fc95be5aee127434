package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeUploadServer implements the session-and-chunks protocol with
// programmable failures.
type fakeUploadServer struct {
	t       *testing.T
	mu      sync.Mutex
	total   int64
	stored  []byte
	fail    map[int]int  // chunk request ordinal -> status to return
	dropAck map[int]bool // chunk ordinals stored but answered with a 503
	reqNum  int
	videoID string

	staleStatus int // status queries answered 308 even when complete

	sessionOpens int
	chunkPuts    int
	statusPuts   int
}

func newFakeUploadServer(t *testing.T) *fakeUploadServer {
	return &fakeUploadServer{t: t, fail: map[int]int{}, dropAck: map[int]bool{}, videoID: "dQw4w9WgXcQ"}
}

func (f *fakeUploadServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Method != http.MethodPost {
			http.Error(w, "expected POST", http.StatusMethodNotAllowed)
			return
		}
		f.sessionOpens++
		fmt.Sscanf(r.Header.Get("X-Upload-Content-Length"), "%d", &f.total)
		w.Header().Set("Location", "http://"+r.Host+"/session")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		contentRange := r.Header.Get("Content-Range")
		if strings.HasPrefix(contentRange, "bytes */") {
			f.statusPuts++
			if f.staleStatus > 0 {
				f.staleStatus--
				f.writeIncomplete(w)
				return
			}
			if f.total > 0 && int64(len(f.stored)) >= f.total {
				w.WriteHeader(http.StatusOK)
				fmt.Fprintf(w, `{"id":%q}`, f.videoID)
				return
			}
			f.writeIncomplete(w)
			return
		}

		f.chunkPuts++
		f.reqNum++
		if status, ok := f.fail[f.reqNum]; ok {
			http.Error(w, "synthetic failure", status)
			return
		}

		var start, end, total int64
		if _, err := fmt.Sscanf(contentRange, "bytes %d-%d/%d", &start, &end, &total); err != nil {
			http.Error(w, "bad content-range", http.StatusBadRequest)
			return
		}
		if start != int64(len(f.stored)) {
			http.Error(w, fmt.Sprintf("offset mismatch: got %d want %d", start, len(f.stored)), http.StatusBadRequest)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "read body", http.StatusInternalServerError)
			return
		}
		f.stored = append(f.stored, body...)

		if f.dropAck[f.reqNum] {
			http.Error(w, "synthetic lost acknowledgment", http.StatusServiceUnavailable)
			return
		}
		if int64(len(f.stored)) >= total {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, `{"id":%q}`, f.videoID)
			return
		}
		f.writeIncomplete(w)
	})
	return mux
}

func (f *fakeUploadServer) writeIncomplete(w http.ResponseWriter) {
	if len(f.stored) > 0 {
		w.Header().Set("Range", fmt.Sprintf("bytes=0-%d", len(f.stored)-1))
	}
	w.WriteHeader(308)
}

func writeVideoStub(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ep.mp4")
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func testUploader(t *testing.T, f *fakeUploadServer, opts ...UploaderOption) (*Uploader, func()) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	base := []UploaderOption{
		WithBaseURL(srv.URL + "/upload"),
		WithChunkSize(1024),
		WithJitter(func() float64 { return 0 }),
		WithSleeper(func(time.Duration) {}),
	}
	return NewUploader(srv.Client(), append(base, opts...)...), srv.Close
}

func TestUploadSendsAllChunks(t *testing.T) {
	f := newFakeUploadServer(t)
	u, done := testUploader(t, f)
	defer done()

	path := writeVideoStub(t, 2560) // 3 chunks at 1024
	var progress []Progress
	videoID, err := u.Upload(context.Background(), path, Video{Title: "t", Privacy: "unlisted"},
		func(p Progress) { progress = append(progress, p) })
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if videoID != "dQw4w9WgXcQ" {
		t.Fatalf("video id = %q", videoID)
	}
	if int64(len(f.stored)) != 2560 {
		t.Fatalf("server stored %d bytes", len(f.stored))
	}
	if f.chunkPuts != 3 || f.sessionOpens != 1 {
		t.Fatalf("chunkPuts=%d sessionOpens=%d", f.chunkPuts, f.sessionOpens)
	}
	if len(progress) == 0 || progress[len(progress)-1].Fraction() != 1 {
		t.Fatalf("unexpected progress: %+v", progress)
	}
}

func TestUploadRetriesServerErrors(t *testing.T) {
	f := newFakeUploadServer(t)
	f.fail[2] = http.StatusServiceUnavailable
	u, done := testUploader(t, f)
	defer done()

	var slept []time.Duration
	u.sleeper = func(d time.Duration) { slept = append(slept, d) }

	path := writeVideoStub(t, 2048)
	if _, err := u.Upload(context.Background(), path, Video{Privacy: "unlisted"}, nil); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(slept) != 1 {
		t.Fatalf("expected one backoff sleep, got %v", slept)
	}
	if f.statusPuts != 1 {
		t.Fatalf("expected offset query after failure, got %d", f.statusPuts)
	}
	if int64(len(f.stored)) != 2048 {
		t.Fatalf("server stored %d bytes", len(f.stored))
	}
}

func TestUploadBackoffBounds(t *testing.T) {
	for _, jitter := range []float64{0, 0.5, 0.999} {
		u := NewUploader(nil, WithJitter(func() float64 { return jitter }))
		for attempt := 1; attempt <= 4; attempt++ {
			delay := u.backoff(attempt)
			low := time.Duration(1<<uint(attempt)) * time.Second
			high := low + time.Second
			if delay < low || delay >= high {
				t.Fatalf("attempt %d jitter %v: delay %v outside [%v, %v)", attempt, jitter, delay, low, high)
			}
		}
	}
}

func TestUploadExhaustsRetryBudget(t *testing.T) {
	f := newFakeUploadServer(t)
	for i := 1; i <= 20; i++ {
		f.fail[i] = http.StatusBadGateway
	}
	u, done := testUploader(t, f, WithMaxRetries(3))
	defer done()

	path := writeVideoStub(t, 2048)
	_, err := u.Upload(context.Background(), path, Video{Privacy: "unlisted"}, nil)
	if err == nil {
		t.Fatalf("expected exhaustion error")
	}
	if !strings.Contains(err.Error(), "after 3 retries") {
		t.Fatalf("error should name the attempt count: %v", err)
	}
	if f.chunkPuts != 4 {
		t.Fatalf("expected initial attempt plus 3 retries, got %d chunk requests", f.chunkPuts)
	}
}

func TestUploadFatalOnClientError(t *testing.T) {
	f := newFakeUploadServer(t)
	f.fail[1] = http.StatusForbidden
	u, done := testUploader(t, f)
	defer done()

	path := writeVideoStub(t, 1024)
	_, err := u.Upload(context.Background(), path, Video{Privacy: "unlisted"}, nil)
	if err == nil {
		t.Fatalf("expected fatal error")
	}
	if f.chunkPuts != 1 {
		t.Fatalf("fatal errors must not retry, got %d requests", f.chunkPuts)
	}
}

func TestUploadResumesFromConfirmedOffset(t *testing.T) {
	f := newFakeUploadServer(t)
	f.fail[3] = http.StatusInternalServerError
	u, done := testUploader(t, f)
	defer done()

	path := writeVideoStub(t, 4096)
	if _, err := u.Upload(context.Background(), path, Video{Privacy: "unlisted"}, nil); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if int64(len(f.stored)) != 4096 {
		t.Fatalf("server stored %d bytes", len(f.stored))
	}
}

func TestUploadRecoversLostFinalAck(t *testing.T) {
	f := newFakeUploadServer(t)
	// server stores the last chunk but the 200 is lost, and the first status
	// query still reports 308 with the full range
	f.dropAck[2] = true
	f.staleStatus = 1
	u, done := testUploader(t, f)
	defer done()

	path := writeVideoStub(t, 2048)
	videoID, err := u.Upload(context.Background(), path, Video{Privacy: "unlisted"}, nil)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if videoID != "dQw4w9WgXcQ" {
		t.Fatalf("video id = %q", videoID)
	}
	if f.chunkPuts != 2 {
		t.Fatalf("a completed upload must not resend chunks, got %d chunk requests", f.chunkPuts)
	}
	if f.statusPuts != 2 {
		t.Fatalf("expected the offset query and the final status query, got %d", f.statusPuts)
	}
}

func TestUploadLostFinalAckResolvedByOffsetQuery(t *testing.T) {
	f := newFakeUploadServer(t)
	f.dropAck[3] = true
	u, done := testUploader(t, f)
	defer done()

	path := writeVideoStub(t, 3072)
	videoID, err := u.Upload(context.Background(), path, Video{Privacy: "unlisted"}, nil)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if videoID != "dQw4w9WgXcQ" {
		t.Fatalf("video id = %q", videoID)
	}
	if f.chunkPuts != 3 || f.statusPuts != 1 {
		t.Fatalf("chunkPuts=%d statusPuts=%d", f.chunkPuts, f.statusPuts)
	}
}

func TestUploadRejectsMissingFile(t *testing.T) {
	u := NewUploader(nil)
	if _, err := u.Upload(context.Background(), "/does/not/exist.mp4", Video{}, nil); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseRangeHeader(t *testing.T) {
	tests := []struct {
		header string
		want   int64
		ok     bool
	}{
		{"bytes=0-1023", 1023, true},
		{"bytes=0-0", 0, true},
		{"", 0, false},
		{"bytes=garbage", 0, false},
	}
	for _, tc := range tests {
		got, ok := parseRangeHeader(tc.header)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("parseRangeHeader(%q) = %d, %v", tc.header, got, ok)
		}
	}
}
