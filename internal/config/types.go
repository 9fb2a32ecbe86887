package config

import "time"

type Config struct {
	Recording     RecordingConfig     `toml:"recording"`
	Transcription TranscriptionConfig `toml:"transcription"`
	Playback      PlaybackConfig      `toml:"playback"`
	Notifications NotificationsConfig `toml:"notifications"`
	Metrics       MetricsConfig       `toml:"metrics"`
}

type RecordingConfig struct {
	SampleRate    int           `toml:"sample_rate"`
	Channels      int           `toml:"channels"`
	Format        string        `toml:"format"`
	BufferSize    int           `toml:"buffer_size"`
	Device        string        `toml:"device"`
	ChunkInterval time.Duration `toml:"chunk_interval"`
	Timeout       time.Duration `toml:"timeout"`
}

type TranscriptionConfig struct {
	Provider string        `toml:"provider"` // "http" or "openai"
	Endpoint string        `toml:"endpoint"`
	APIKey   string        `toml:"api_key"`
	Model    string        `toml:"model"`
	Language string        `toml:"language"`
	Timeout  time.Duration `toml:"timeout"`
}

type PlaybackConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"` // empty = user cache dir
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Type    string `toml:"type"` // "desktop", "log", "none"
}

type MetricsConfig struct {
	Listen string `toml:"listen"` // e.g. "127.0.0.1:9464"; empty disables
}
