package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	t.Setenv("VOICESCRIBE_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default config", func(c *Config) {}, false},
		{"invalid sample rate", func(c *Config) { c.Recording.SampleRate = 0 }, true},
		{"invalid channels", func(c *Config) { c.Recording.Channels = -1 }, true},
		{"invalid buffer size", func(c *Config) { c.Recording.BufferSize = 0 }, true},
		{"unsupported format", func(c *Config) { c.Recording.Format = "f32" }, true},
		{"invalid chunk interval", func(c *Config) { c.Recording.ChunkInterval = 0 }, true},
		{"invalid timeout", func(c *Config) { c.Recording.Timeout = 0 }, true},
		{"unknown provider", func(c *Config) { c.Transcription.Provider = "groq" }, true},
		{"http without endpoint", func(c *Config) { c.Transcription.Endpoint = "" }, true},
		{"endpoint without scheme", func(c *Config) { c.Transcription.Endpoint = "example.com" }, true},
		{"ftp endpoint", func(c *Config) { c.Transcription.Endpoint = "ftp://example.com" }, true},
		{"local endpoint", func(c *Config) { c.Transcription.Endpoint = "http://127.0.0.1:8000" }, false},
		{"openai without key", func(c *Config) { c.Transcription.Provider = "openai" }, true},
		{"openai with key", func(c *Config) {
			c.Transcription.Provider = "openai"
			c.Transcription.APIKey = "sk-test"
		}, false},
		{"openai without model", func(c *Config) {
			c.Transcription.Provider = "openai"
			c.Transcription.APIKey = "sk-test"
			c.Transcription.Model = ""
		}, true},
		{"valid language", func(c *Config) { c.Transcription.Language = "it" }, false},
		{"invalid language", func(c *Config) { c.Transcription.Language = "klingon" }, true},
		{"negative upload timeout", func(c *Config) { c.Transcription.Timeout = -time.Second }, true},
		{"invalid notification type", func(c *Config) { c.Notifications.Type = "smoke-signal" }, true},
		{"metrics listen", func(c *Config) { c.Metrics.Listen = "127.0.0.1:9464" }, false},
		{"invalid metrics listen", func(c *Config) { c.Metrics.Listen = "9464" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Load(t *testing.T) {
	t.Run("creates default config when none exists", func(t *testing.T) {
		tempDir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", tempDir)

		config, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("Loaded config is invalid: %v", err)
		}

		configPath := filepath.Join(tempDir, "voicescribe", "config.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			t.Fatal("Load() did not create config file")
		}

		want := DefaultConfig()
		if *config != *want {
			t.Errorf("generated file does not match defaults:\n got %+v\nwant %+v", config, want)
		}
	})

	t.Run("missing keys keep defaults", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "config.toml")
		partial := `[recording]
sample_rate = 44100
timeout = "30s"

[transcription]
endpoint = "http://localhost:8000"
language = "fr"
`
		if err := os.WriteFile(configPath, []byte(partial), 0644); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}

		config, err := LoadFile(configPath)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}
		if config.Recording.SampleRate != 44100 {
			t.Errorf("Expected SampleRate 44100, got %d", config.Recording.SampleRate)
		}
		if config.Recording.Timeout != 30*time.Second {
			t.Errorf("Expected Timeout 30s, got %v", config.Recording.Timeout)
		}
		if config.Recording.Channels != 1 {
			t.Errorf("Expected default Channels 1, got %d", config.Recording.Channels)
		}
		if config.Transcription.Provider != "http" {
			t.Errorf("Expected default provider http, got %s", config.Transcription.Provider)
		}
		if config.Transcription.Endpoint != "http://localhost:8000" {
			t.Errorf("Unexpected endpoint %s", config.Transcription.Endpoint)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("Loaded config is invalid: %v", err)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[recording\nsample_rate = "), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFile(configPath); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestSaveRoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Recording.ChunkInterval = 250 * time.Millisecond
	cfg.Recording.Device = "alsa_input.usb"
	cfg.Transcription.Provider = "openai"
	cfg.Transcription.APIKey = "sk-test"
	cfg.Transcription.Timeout = 90 * time.Second
	cfg.Metrics.Listen = "127.0.0.1:9464"

	if err := SaveFile(configPath, cfg); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}
	if _, err := os.Stat(configPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	loaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestToTranscriberConfig(t *testing.T) {
	t.Run("config key wins", func(t *testing.T) {
		t.Setenv("VOICESCRIBE_API_KEY", "env-key")
		cfg := DefaultConfig()
		cfg.Transcription.APIKey = "file-key"
		if got := cfg.ToTranscriberConfig().APIKey; got != "file-key" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("voicescribe env fallback", func(t *testing.T) {
		t.Setenv("VOICESCRIBE_API_KEY", "env-key")
		t.Setenv("OPENAI_API_KEY", "openai-key")
		if got := DefaultConfig().ToTranscriberConfig().APIKey; got != "env-key" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("openai env only for openai provider", func(t *testing.T) {
		t.Setenv("VOICESCRIBE_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "openai-key")
		cfg := DefaultConfig()
		if got := cfg.ToTranscriberConfig().APIKey; got != "" {
			t.Errorf("http provider should not pick up OPENAI_API_KEY, got %q", got)
		}
		cfg.Transcription.Provider = "openai"
		if got := cfg.ToTranscriberConfig().APIKey; got != "openai-key" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("fields", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Transcription.Language = "de"
		tc := cfg.ToTranscriberConfig()
		if tc.Endpoint != cfg.Transcription.Endpoint || tc.Language != "de" || tc.Timeout != 60*time.Second {
			t.Errorf("unexpected transcriber config %+v", tc)
		}
	})
}

func TestToRecordingConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Recording.Device = "mic"
	rc := cfg.ToRecordingConfig()
	if rc.SampleRate != 16000 || rc.Channels != 1 || rc.Format != "s16" || rc.Device != "mic" {
		t.Errorf("unexpected recording config %+v", rc)
	}
	if rc.ChunkInterval != time.Second || rc.Timeout != 5*time.Minute {
		t.Errorf("unexpected durations %+v", rc)
	}
}

func TestNotificationTypeAndPlaybackDir(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.NotificationType() != "desktop" {
		t.Errorf("got %s", cfg.NotificationType())
	}
	cfg.Notifications.Enabled = false
	if cfg.NotificationType() != "none" {
		t.Errorf("disabled notifications should map to none, got %s", cfg.NotificationType())
	}

	cfg.Playback.Dir = "/tmp/clips"
	if dir, _ := cfg.PlaybackDir(); dir != "/tmp/clips" {
		t.Errorf("got %s", dir)
	}
	cfg.Playback.Enabled = false
	if dir, _ := cfg.PlaybackDir(); dir != "" {
		t.Errorf("disabled playback should have no dir, got %s", dir)
	}
}

func TestLanguageCodes(t *testing.T) {
	codes := LanguageCodes()
	if len(codes) != len(languageCodes) {
		t.Fatalf("got %d codes", len(codes))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted at %d: %s >= %s", i, codes[i-1], codes[i])
		}
	}
}

func TestManagerReload(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	m, err := NewManagerForFile(configPath)
	if err != nil {
		t.Fatalf("NewManagerForFile() error = %v", err)
	}

	reloaded := make(chan *Config, 4)
	m.OnReload(func(c *Config) { reloaded <- c })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.StartWatching(ctx); err != nil {
		t.Fatalf("StartWatching() error = %v", err)
	}
	defer m.Stop()

	cfg := m.GetConfig()
	cfg.Transcription.Endpoint = "http://localhost:9999"
	if err := SaveFile(configPath, cfg); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}

	select {
	case c := <-reloaded:
		if c.Transcription.Endpoint != "http://localhost:9999" {
			t.Errorf("callback got endpoint %s", c.Transcription.Endpoint)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("config reload was not observed")
	}
	if got := m.GetConfig().Transcription.Endpoint; got != "http://localhost:9999" {
		t.Errorf("manager still holds endpoint %s", got)
	}
}

func TestManagerIgnoresInvalidReload(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	m, err := NewManagerForFile(configPath)
	if err != nil {
		t.Fatalf("NewManagerForFile() error = %v", err)
	}
	called := false
	m.OnReload(func(*Config) { called = true })

	if err := os.WriteFile(configPath, []byte("[recording]\nsample_rate = -5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	m.reloadConfig()

	if called {
		t.Error("callbacks must not run for an invalid config")
	}
	if m.GetConfig().Recording.SampleRate != 16000 {
		t.Error("invalid config replaced the current one")
	}
}
