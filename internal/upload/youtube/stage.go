package youtube

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/benrubinchik/podflow/internal/config"
	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/logging"
	"github.com/benrubinchik/podflow/internal/state"
)

// ClientFunc builds the authorized HTTP client. Indirected so tests can
// substitute a plain client.
type ClientFunc func(ctx context.Context) (*http.Client, error)

// Stage uploads the processed video.
type Stage struct {
	cfg       config.YouTube
	clientFn  ClientFunc
	logger    *slog.Logger
	extraOpts []UploaderOption
}

// NewStage constructs the upload_youtube stage. A nil clientFn uses the
// cached OAuth token from configuration.
func NewStage(cfg config.YouTube, clientFn ClientFunc, extraOpts ...UploaderOption) *Stage {
	if clientFn == nil {
		clientFn = func(ctx context.Context) (*http.Client, error) {
			return Client(ctx, cfg.ClientSecretsFile, cfg.TokenFile)
		}
	}
	return &Stage{cfg: cfg, clientFn: clientFn, logger: logging.NewNop(), extraOpts: extraOpts}
}

func (s *Stage) Name() string { return state.StageUploadYouTube }

func (s *Stage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *Stage) Run(ctx context.Context, ep *episode.Episode) (state.Outputs, error) {
	if ep.VideoFile == "" {
		s.logger.Info("no processed video; skipping upload")
		return state.Outputs{}, nil
	}

	httpClient, err := s.clientFn(ctx)
	if err != nil {
		return nil, err
	}

	opts := []UploaderOption{WithLogger(s.logger)}
	if s.cfg.ChunkSizeMiB > 0 {
		opts = append(opts, WithChunkSize(int64(s.cfg.ChunkSizeMiB)<<20))
	}
	if s.cfg.MaxRetries > 0 {
		opts = append(opts, WithMaxRetries(s.cfg.MaxRetries))
	}
	opts = append(opts, s.extraOpts...)
	uploader := NewUploader(httpClient, opts...)

	video := BuildVideo(ep, s.cfg.Category, s.cfg.Privacy)
	videoID, err := uploader.Upload(ctx, ep.VideoFile, video, func(p Progress) {
		s.logger.Debug("upload progress",
			logging.Int64("sent_bytes", p.SentBytes),
			logging.Int64("total_bytes", p.TotalBytes))
	})
	if err != nil {
		return nil, err
	}

	ep.YouTubeVideoID = videoID
	ep.YouTubeURL = WatchURL(videoID)
	s.logger.Info("video uploaded",
		logging.String("video_id", videoID),
		logging.String("url", ep.YouTubeURL))

	return state.Outputs{
		"youtube_video_id": videoID,
		"youtube_url":      ep.YouTubeURL,
	}, nil
}

func (s *Stage) Restore(_ context.Context, ep *episode.Episode, outputs state.Outputs) error {
	ep.YouTubeVideoID = outputs.String("youtube_video_id")
	ep.YouTubeURL = outputs.String("youtube_url")
	return nil
}
