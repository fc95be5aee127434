package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateHosting(); err != nil {
		return err
	}
	if err := c.validateFeed(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.Channels < 1 || c.Audio.Channels > 2 {
		return errors.New("audio.channels must be 1 or 2")
	}
	if c.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if c.Audio.TargetLUFS > 0 {
		return errors.New("audio.target_lufs must be negative (e.g. -16)")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.CRF < 0 || c.Video.CRF > 51 {
		return errors.New("video.crf must be between 0 and 51")
	}
	if c.Video.MaxWidth <= 0 || c.Video.MaxHeight <= 0 {
		return errors.New("video.max_width and video.max_height must be positive")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Backend {
	case "whisper_api", "whisper_local":
		return nil
	default:
		return fmt.Errorf("transcription.backend must be whisper_api or whisper_local, got %q", c.Transcription.Backend)
	}
}

func (c *Config) validateYouTube() error {
	switch c.YouTube.Privacy {
	case "public", "unlisted", "private":
	default:
		return fmt.Errorf("youtube.privacy must be public, unlisted, or private, got %q", c.YouTube.Privacy)
	}
	return nil
}

func (c *Config) validateHosting() error {
	switch c.Hosting.Method {
	case "s3":
		if c.Hosting.S3Bucket == "" {
			return errors.New("hosting.s3_bucket is required when hosting.method is s3")
		}
	case "scp":
		if c.Hosting.SCPHost == "" || c.Hosting.SCPUser == "" {
			return errors.New("hosting.scp_host and hosting.scp_user are required when hosting.method is scp")
		}
		if c.Hosting.SCPPublicURLBase == "" {
			return errors.New("hosting.scp_public_url_base is required when hosting.method is scp")
		}
	case "local":
	default:
		return fmt.Errorf("hosting.method must be s3, scp, or local, got %q", c.Hosting.Method)
	}
	return nil
}

func (c *Config) validateFeed() error {
	if c.Feed.Title == "" {
		return errors.New("feed.title must be set")
	}
	if c.Feed.Filename == "" {
		return errors.New("feed.filename must be set")
	}
	return nil
}
