package hosting

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/benrubinchik/podflow/internal/config"
	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/state"
)

func TestNewRejectsUnknownMethod(t *testing.T) {
	if _, err := New(context.Background(), config.Hosting{Method: "carrier_pigeon"}); err == nil {
		t.Fatalf("expected error for unknown method")
	}
}

func TestLocalHosterCopiesAndBuildsURL(t *testing.T) {
	src := filepath.Join(t.TempDir(), "ep.mp3")
	if err := os.WriteFile(src, []byte("audio bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	dir := t.TempDir()
	h := NewLocalHoster(config.Hosting{
		LocalDir:           dir,
		LocalPublicURLBase: "https://cdn.example.com/episodes/",
	})

	url, err := h.Host(context.Background(), src, "ep.mp3")
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	if url != "https://cdn.example.com/episodes/ep.mp3" {
		t.Fatalf("url = %q", url)
	}
	copied, err := os.ReadFile(filepath.Join(dir, "ep.mp3"))
	if err != nil || string(copied) != "audio bytes" {
		t.Fatalf("copy failed: %v %q", err, copied)
	}
}

type capturePutter struct {
	bucket, key, contentType string
	body                     []byte
}

func (c *capturePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	c.bucket = *params.Bucket
	c.key = *params.Key
	c.contentType = *params.ContentType
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	c.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3HosterPutsObject(t *testing.T) {
	src := filepath.Join(t.TempDir(), "ep.mp3")
	if err := os.WriteFile(src, []byte("mp3 payload"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	putter := &capturePutter{}
	h := &S3Hoster{
		client: putter,
		bucket: "podcast-media",
		prefix: "episodes",
		region: "us-east-1",
	}

	url, err := h.Host(context.Background(), src, "ep.mp3")
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	if putter.bucket != "podcast-media" || putter.key != "episodes/ep.mp3" {
		t.Fatalf("put %s/%s", putter.bucket, putter.key)
	}
	if putter.contentType != "audio/mpeg" {
		t.Fatalf("content type = %q", putter.contentType)
	}
	if !bytes.Equal(putter.body, []byte("mp3 payload")) {
		t.Fatalf("body mismatch")
	}
	if url != "https://podcast-media.s3.us-east-1.amazonaws.com/episodes/ep.mp3" {
		t.Fatalf("url = %q", url)
	}
}

func TestS3HosterPublicURLBaseOverride(t *testing.T) {
	h := &S3Hoster{publicURLBase: "https://media.example.com"}
	if got := h.publicURL("episodes/ep.mp3"); got != "https://media.example.com/episodes/ep.mp3" {
		t.Fatalf("url = %q", got)
	}
}

type staticHoster struct {
	url      string
	gotLocal string
	gotName  string
}

func (s *staticHoster) Host(_ context.Context, localPath, remoteName string) (string, error) {
	s.gotLocal = localPath
	s.gotName = remoteName
	return s.url, nil
}

func TestStageRunRecordsURLAndSize(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "ep_abc.mp3")
	if err := os.WriteFile(audio, []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	hoster := &staticHoster{url: "https://cdn.example.com/ep_abc.mp3"}
	s := NewStage(hoster, config.Tags{}, config.Feed{})

	ep := &episode.Episode{AudioFile: audio}
	outputs, err := s.Run(context.Background(), ep)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if hoster.gotName != "ep_abc.mp3" {
		t.Fatalf("remote name = %q", hoster.gotName)
	}
	if ep.AudioURL != hoster.url || ep.AudioSizeBytes != 10 {
		t.Fatalf("episode fields: %q %d", ep.AudioURL, ep.AudioSizeBytes)
	}
	if outputs.Int64("audio_size_bytes") != 10 {
		t.Fatalf("outputs = %v", outputs)
	}

	restored := &episode.Episode{}
	if err := s.Restore(context.Background(), restored, outputs); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.AudioURL != hoster.url || restored.AudioSizeBytes != 10 {
		t.Fatalf("restore lost fields")
	}
	if s.Name() != state.StageHostAudio {
		t.Fatalf("stage name = %q", s.Name())
	}
}

func TestStageRequiresAudio(t *testing.T) {
	s := NewStage(&staticHoster{}, config.Tags{}, config.Feed{})
	if _, err := s.Run(context.Background(), &episode.Episode{}); err == nil {
		t.Fatalf("expected validation error")
	}
}
