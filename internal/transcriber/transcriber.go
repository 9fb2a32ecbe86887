package transcriber

import (
	"context"
	"fmt"
	"time"
)

// Transcriber sends one WAV stream to a transcription backend.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

type Config struct {
	Provider string // "http" or "openai"
	Endpoint string // base URL; "/transcribe/" is appended for the http provider
	APIKey   string
	Model    string
	Language string
	Timeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Provider: "http",
		Endpoint: "https://multilingualvoice.vercel.app",
		Model:    "whisper-1",
		Timeout:  60 * time.Second,
	}
}

func New(config Config) (Transcriber, error) {
	switch config.Provider {
	case "", "http":
		if config.Endpoint == "" {
			return nil, fmt.Errorf("transcription endpoint required")
		}
		return NewHTTPClient(config), nil

	case "openai":
		if config.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		return NewOpenAIAdapter(config), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}
}
