package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeYouTube(); err != nil {
		return err
	}
	if err := c.normalizeHosting(); err != nil {
		return err
	}
	c.normalizeTranscription()
	c.normalizeMetadata()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeYouTube() error {
	var err error
	if c.YouTube.ClientSecretsFile, err = expandPath(c.YouTube.ClientSecretsFile); err != nil {
		return fmt.Errorf("youtube.client_secrets_file: %w", err)
	}
	if c.YouTube.TokenFile, err = expandPath(c.YouTube.TokenFile); err != nil {
		return fmt.Errorf("youtube.token_file: %w", err)
	}
	if c.YouTube.ChunkSizeMiB <= 0 {
		c.YouTube.ChunkSizeMiB = defaultUploadChunkMiB
	}
	if c.YouTube.MaxRetries <= 0 {
		c.YouTube.MaxRetries = defaultUploadMaxRetries
	}
	c.YouTube.Privacy = strings.ToLower(strings.TrimSpace(c.YouTube.Privacy))
	if c.YouTube.Privacy == "" {
		c.YouTube.Privacy = defaultYouTubePrivacy
	}
	return nil
}

func (c *Config) normalizeHosting() error {
	c.Hosting.Method = strings.ToLower(strings.TrimSpace(c.Hosting.Method))
	if c.Hosting.Method == "" {
		c.Hosting.Method = defaultHostingMethod
	}
	if c.Hosting.Method == "local" {
		var err error
		if strings.TrimSpace(c.Hosting.LocalDir) == "" {
			c.Hosting.LocalDir = defaultHostingLocalDir
		}
		if c.Hosting.LocalDir, err = expandPath(c.Hosting.LocalDir); err != nil {
			return fmt.Errorf("hosting.local_dir: %w", err)
		}
	}
	c.Hosting.S3PublicURLBase = strings.TrimRight(c.Hosting.S3PublicURLBase, "/")
	c.Hosting.SCPPublicURLBase = strings.TrimRight(c.Hosting.SCPPublicURLBase, "/")
	c.Hosting.LocalPublicURLBase = strings.TrimRight(c.Hosting.LocalPublicURLBase, "/")
	return nil
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Backend = strings.ToLower(strings.TrimSpace(c.Transcription.Backend))
	if c.Transcription.Backend == "" {
		c.Transcription.Backend = defaultTranscribeBackend
	}
	if strings.TrimSpace(c.Transcription.BaseURL) == "" {
		c.Transcription.BaseURL = defaultTranscribeBaseURL
	}
	if strings.TrimSpace(c.Transcription.WhisperBin) == "" {
		c.Transcription.WhisperBin = defaultWhisperBin
	}
	if strings.TrimSpace(c.Transcription.APIKey) == "" {
		c.Transcription.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

func (c *Config) normalizeMetadata() {
	if strings.TrimSpace(c.Metadata.BaseURL) == "" {
		c.Metadata.BaseURL = defaultMetadataBaseURL
	}
	if c.Metadata.MaxTags <= 0 {
		c.Metadata.MaxTags = defaultMetadataMaxTags
	}
	if c.Metadata.TimeoutSeconds <= 0 {
		c.Metadata.TimeoutSeconds = defaultMetadataTimeout
	}
	if strings.TrimSpace(c.Metadata.APIKey) == "" {
		c.Metadata.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
