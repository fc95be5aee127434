package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Audio contains transcoding and loudness normalization settings for the
// published MP3.
type Audio struct {
	Bitrate    string  `toml:"bitrate"`
	Channels   int     `toml:"channels"`
	SampleRate int     `toml:"sample_rate"`
	TargetLUFS float64 `toml:"target_lufs"`
	Codec      string  `toml:"codec"`
	FFmpegBin  string  `toml:"ffmpeg_bin"`
	FFprobeBin string  `toml:"ffprobe_bin"`
}

// Video contains re-encoding settings for the YouTube-bound video.
type Video struct {
	Codec        string `toml:"codec"`
	Preset       string `toml:"preset"`
	CRF          int    `toml:"crf"`
	AudioCodec   string `toml:"audio_codec"`
	AudioBitrate string `toml:"audio_bitrate"`
	MaxWidth     int    `toml:"max_width"`
	MaxHeight    int    `toml:"max_height"`
}

// Transcription selects and configures the speech-to-text backend.
type Transcription struct {
	Backend  string `toml:"backend"` // "whisper_api" or "whisper_local"
	Model    string `toml:"model"`
	Language string `toml:"language"`
	Prompt   string `toml:"prompt"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	// WhisperBin is the local whisper executable used by the whisper_local backend.
	WhisperBin string `toml:"whisper_bin"`
}

// Metadata contains LLM connection settings for episode metadata generation.
type Metadata struct {
	APIKey           string `toml:"api_key"`
	BaseURL          string `toml:"base_url"`
	Model            string `toml:"model"`
	MaxTags          int    `toml:"max_tags"`
	GenerateChapters bool   `toml:"generate_chapters"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
}

// YouTube contains upload and OAuth settings.
type YouTube struct {
	ClientSecretsFile string `toml:"client_secrets_file"`
	TokenFile         string `toml:"token_file"`
	Category          string `toml:"category"`
	Privacy           string `toml:"privacy"` // "public", "unlisted", or "private"
	ChunkSizeMiB      int    `toml:"chunk_size_mib"`
	MaxRetries        int    `toml:"max_retries"`
}

// Hosting selects where the published MP3 (and feed) are uploaded.
type Hosting struct {
	Method string `toml:"method"` // "s3", "scp", or "local"

	S3Bucket        string `toml:"s3_bucket"`
	S3Prefix        string `toml:"s3_prefix"`
	S3Endpoint      string `toml:"s3_endpoint"`
	S3Region        string `toml:"s3_region"`
	S3AccessKeyID   string `toml:"s3_access_key_id"`
	S3SecretKey     string `toml:"s3_secret_access_key"`
	S3ForcePath     bool   `toml:"s3_force_path_style"`
	S3PublicURLBase string `toml:"s3_public_url_base"`

	SCPHost          string `toml:"scp_host"`
	SCPUser          string `toml:"scp_user"`
	SCPRemotePath    string `toml:"scp_remote_path"`
	SCPPublicURLBase string `toml:"scp_public_url_base"`

	LocalDir           string `toml:"local_dir"`
	LocalPublicURLBase string `toml:"local_public_url_base"`
}

// Feed contains the podcast channel description and output settings.
type Feed struct {
	Title       string `toml:"title"`
	Link        string `toml:"link"`
	Description string `toml:"description"`
	Author      string `toml:"author"`
	Email       string `toml:"email"`
	ImageURL    string `toml:"image_url"`
	Language    string `toml:"language"`
	Category    string `toml:"category"`
	Subcategory string `toml:"subcategory"`
	Explicit    bool   `toml:"explicit"`
	Filename    string `toml:"filename"`
}

// Tags configures ID3 tagging of the produced MP3.
type Tags struct {
	Enabled     bool   `toml:"enabled"`
	ArtworkPath string `toml:"artwork_path"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for podflow.
//
// Configuration sections by subsystem:
//   - Paths: episode output root and log directory
//   - Audio/Video: ffmpeg transcode parameters
//   - Transcription: whisper backend selection
//   - Metadata: LLM connection for metadata generation
//   - YouTube: OAuth files and resumable upload tuning
//   - Hosting: s3/scp/local audio hosting
//   - Feed: RSS channel fields
//   - Tags: ID3 tagging
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Audio         Audio         `toml:"audio"`
	Video         Video         `toml:"video"`
	Transcription Transcription `toml:"transcription"`
	Metadata      Metadata      `toml:"metadata"`
	YouTube       YouTube       `toml:"youtube"`
	Hosting       Hosting       `toml:"hosting"`
	Feed          Feed          `toml:"feed"`
	Tags          Tags          `toml:"tags"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/podflow/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was found on disk.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("podflow.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the directories podflow writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FeedPath returns the feed output location under the output root.
func (c *Config) FeedPath() string {
	return filepath.Join(c.Paths.OutputDir, c.Feed.Filename)
}

// CatalogPath returns the sqlite episode catalog location.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.OutputDir, "catalog.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
