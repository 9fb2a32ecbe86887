package config

import "time"

// DefaultConfig returns the configuration written on first start.
func DefaultConfig() *Config {
	return &Config{
		Recording: RecordingConfig{
			SampleRate:    16000,
			Channels:      1,
			Format:        "s16",
			BufferSize:    8192,
			Device:        "",
			ChunkInterval: time.Second,
			Timeout:       5 * time.Minute,
		},
		Transcription: TranscriptionConfig{
			Provider: "http",
			Endpoint: "https://multilingualvoice.vercel.app",
			Model:    "whisper-1",
			Timeout:  60 * time.Second,
		},
		Playback: PlaybackConfig{
			Enabled: true,
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "desktop",
		},
	}
}

const defaultConfigContent = `# Voicescribe Configuration
# This file is automatically generated with defaults.
# Edit values as needed - the daemon reloads it while idle.

# Audio Recording Configuration
[recording]
  sample_rate = 16000          # Audio sample rate in Hz (16000 recommended for speech)
  channels = 1                 # Number of audio channels (1 = mono, 2 = stereo)
  format = "s16"               # Capture format (only s16 is supported)
  buffer_size = 8192           # Read buffer size in bytes
  device = ""                  # PipeWire audio device (empty = use default microphone)
  chunk_interval = "1s"        # How often captured audio is cut into a chunk
  timeout = "5m"               # Maximum recording duration (e.g., "30s", "2m", "5m")

# Speech Transcription Configuration
[transcription]
  provider = "http"            # "http" (multipart POST to <endpoint>/transcribe/) or "openai"
  endpoint = "https://multilingualvoice.vercel.app"
  api_key = ""                 # Optional bearer token (or VOICESCRIBE_API_KEY / OPENAI_API_KEY)
  model = "whisper-1"          # Model name, used by the openai provider
  language = ""                # Language code (empty for auto-detect, "en", "it", "es", ...)
  timeout = "60s"              # Upload timeout

# Local copy of the last clip for playback
[playback]
  enabled = true
  dir = ""                     # Empty = ~/.cache/voicescribe/clips

# Desktop Notification Configuration
[notifications]
  enabled = true               # Enable notifications
  type = "desktop"             # Notification type ("desktop", "log", "none")

# Prometheus metrics
[metrics]
  listen = ""                  # e.g. "127.0.0.1:9464" (empty = disabled)
`
