package config

const (
	defaultOutputDir          = "./output"
	defaultLogDir             = "~/.local/share/podflow/logs"
	defaultAudioBitrate       = "128k"
	defaultAudioChannels      = 1
	defaultAudioSampleRate    = 44100
	defaultAudioTargetLUFS    = -16.0
	defaultAudioCodec         = "libmp3lame"
	defaultVideoCodec         = "libx264"
	defaultVideoPreset        = "medium"
	defaultVideoCRF           = 23
	defaultVideoAudioCodec    = "aac"
	defaultVideoAudioBitrate  = "192k"
	defaultVideoMaxWidth      = 1920
	defaultVideoMaxHeight     = 1080
	defaultTranscribeBackend  = "whisper_api"
	defaultTranscribeModel    = "whisper-1"
	defaultTranscribeBaseURL  = "https://api.openai.com/v1"
	defaultWhisperBin         = "whisper"
	defaultMetadataBaseURL    = "https://api.anthropic.com/v1/messages"
	defaultMetadataModel      = "claude-sonnet-4-5"
	defaultMetadataMaxTags    = 10
	defaultMetadataTimeout    = 120
	defaultClientSecretsFile  = "client_secrets.json"
	defaultTokenFile          = ".youtube_token.json"
	defaultYouTubeCategory    = "22" // People & Blogs
	defaultYouTubePrivacy     = "unlisted"
	defaultUploadChunkMiB     = 10
	defaultUploadMaxRetries   = 5
	defaultHostingMethod      = "local"
	defaultHostingS3Prefix    = "episodes/"
	defaultHostingLocalDir    = "./output/hosted"
	defaultHostingLocalURL    = "http://localhost:8000"
	defaultFeedTitle          = "My Podcast"
	defaultFeedLink           = "https://example.com"
	defaultFeedDescription    = "A podcast about things."
	defaultFeedAuthor         = "Podcast Author"
	defaultFeedEmail          = "podcast@example.com"
	defaultFeedLanguage       = "en"
	defaultFeedCategory       = "Technology"
	defaultFeedFilename       = "feed.xml"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultTranscribeLanguage = ""
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Audio: Audio{
			Bitrate:    defaultAudioBitrate,
			Channels:   defaultAudioChannels,
			SampleRate: defaultAudioSampleRate,
			TargetLUFS: defaultAudioTargetLUFS,
			Codec:      defaultAudioCodec,
		},
		Video: Video{
			Codec:        defaultVideoCodec,
			Preset:       defaultVideoPreset,
			CRF:          defaultVideoCRF,
			AudioCodec:   defaultVideoAudioCodec,
			AudioBitrate: defaultVideoAudioBitrate,
			MaxWidth:     defaultVideoMaxWidth,
			MaxHeight:    defaultVideoMaxHeight,
		},
		Transcription: Transcription{
			Backend:    defaultTranscribeBackend,
			Model:      defaultTranscribeModel,
			Language:   defaultTranscribeLanguage,
			BaseURL:    defaultTranscribeBaseURL,
			WhisperBin: defaultWhisperBin,
		},
		Metadata: Metadata{
			BaseURL:          defaultMetadataBaseURL,
			Model:            defaultMetadataModel,
			MaxTags:          defaultMetadataMaxTags,
			GenerateChapters: true,
			TimeoutSeconds:   defaultMetadataTimeout,
		},
		YouTube: YouTube{
			ClientSecretsFile: defaultClientSecretsFile,
			TokenFile:         defaultTokenFile,
			Category:          defaultYouTubeCategory,
			Privacy:           defaultYouTubePrivacy,
			ChunkSizeMiB:      defaultUploadChunkMiB,
			MaxRetries:        defaultUploadMaxRetries,
		},
		Hosting: Hosting{
			Method:             defaultHostingMethod,
			S3Prefix:           defaultHostingS3Prefix,
			S3Region:           "auto",
			LocalDir:           defaultHostingLocalDir,
			LocalPublicURLBase: defaultHostingLocalURL,
		},
		Feed: Feed{
			Title:       defaultFeedTitle,
			Link:        defaultFeedLink,
			Description: defaultFeedDescription,
			Author:      defaultFeedAuthor,
			Email:       defaultFeedEmail,
			Language:    defaultFeedLanguage,
			Category:    defaultFeedCategory,
			Filename:    defaultFeedFilename,
		},
		Tags: Tags{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
