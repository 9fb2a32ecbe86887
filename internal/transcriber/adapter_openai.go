package transcriber

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIAdapter sends the WAV stream to the OpenAI audio transcription API,
// or to any compatible service when Endpoint is set.
type OpenAIAdapter struct {
	client *openai.Client
	config Config
}

func NewOpenAIAdapter(config Config) *OpenAIAdapter {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.Endpoint != "" {
		clientConfig.BaseURL = config.Endpoint
	}
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}
	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

func (a *OpenAIAdapter) Transcribe(ctx context.Context, wav []byte) (string, error) {
	req := openai.AudioRequest{
		Model:    a.config.Model,
		Reader:   bytes.NewReader(wav),
		FilePath: formFilename,
		Language: a.config.Language,
	}

	start := time.Now()
	resp, err := a.client.CreateTranscription(ctx, req)
	duration := time.Since(start)

	if err != nil {
		log.Printf("openai-adapter: API call failed after %v: %v", duration, err)
		return "", uploadFailed("openai transcription: %v", err)
	}

	log.Printf("openai-adapter: transcribed %d bytes in %v: %q", len(wav), duration, resp.Text)
	return resp.Text, nil
}
