package config

import (
	"os"

	"github.com/leonardotrapani/voicescribe/internal/playback"
	"github.com/leonardotrapani/voicescribe/internal/recording"
	"github.com/leonardotrapani/voicescribe/internal/transcriber"
)

func (c *Config) ToRecordingConfig() recording.Config {
	return recording.Config{
		SampleRate:    c.Recording.SampleRate,
		Channels:      c.Recording.Channels,
		Format:        c.Recording.Format,
		BufferSize:    c.Recording.BufferSize,
		Device:        c.Recording.Device,
		ChunkInterval: c.Recording.ChunkInterval,
		Timeout:       c.Recording.Timeout,
	}
}

func (c *Config) ToTranscriberConfig() transcriber.Config {
	return transcriber.Config{
		Provider: c.Transcription.Provider,
		Endpoint: c.Transcription.Endpoint,
		APIKey:   c.resolveAPIKey(),
		Model:    c.Transcription.Model,
		Language: c.Transcription.Language,
		Timeout:  c.Transcription.Timeout,
	}
}

// PlaybackDir is where clips are kept, or "" when playback is disabled.
func (c *Config) PlaybackDir() (string, error) {
	if !c.Playback.Enabled {
		return "", nil
	}
	if c.Playback.Dir != "" {
		return c.Playback.Dir, nil
	}
	return playback.DefaultDir()
}

// NotificationType folds the enabled flag into the notifier kind.
func (c *Config) NotificationType() string {
	if !c.Notifications.Enabled {
		return "none"
	}
	return c.Notifications.Type
}

// resolveAPIKey checks config first, then VOICESCRIBE_API_KEY, then
// OPENAI_API_KEY for the openai provider.
func (c *Config) resolveAPIKey() string {
	if c.Transcription.APIKey != "" {
		return c.Transcription.APIKey
	}
	if key := os.Getenv("VOICESCRIBE_API_KEY"); key != "" {
		return key
	}
	if c.Transcription.Provider == "openai" {
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}
