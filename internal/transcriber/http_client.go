package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const (
	transcribePath = "/transcribe/"
	formField      = "file"
	formFilename   = "audio.wav"
	maxErrorBody   = 512
)

// HTTPClient posts WAV audio as multipart form data and reads back
// {"transcription": "..."}.
type HTTPClient struct {
	client   *http.Client
	url      string
	apiKey   string
	language string
}

type transcribeResponse struct {
	Transcription string `json:"transcription"`
}

func NewHTTPClient(config Config) *HTTPClient {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		client:   &http.Client{Timeout: timeout},
		url:      strings.TrimRight(config.Endpoint, "/") + transcribePath,
		apiKey:   config.APIKey,
		language: config.Language,
	}
}

func (c *HTTPClient) URL() string { return c.url }

func (c *HTTPClient) Transcribe(ctx context.Context, wav []byte) (string, error) {
	body, contentType, err := buildForm(wav, c.language)
	if err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		log.Printf("http-transcriber: request failed after %v: %v", duration, err)
		return "", uploadFailed("post %s: %v", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Printf("http-transcriber: endpoint returned %s after %v", resp.Status, duration)
		return "", &UploadError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	var result transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", uploadFailed("decode response: %v", err)
	}

	log.Printf("http-transcriber: transcribed %d bytes in %v: %q", len(wav), duration, result.Transcription)
	return result.Transcription, nil
}

func buildForm(wav []byte, language string) (io.Reader, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, formField, formFilename))
	header.Set("Content-Type", "audio/wav")
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return nil, "", fmt.Errorf("copy audio data: %w", err)
	}

	if language != "" {
		if err := writer.WriteField("language", language); err != nil {
			return nil, "", fmt.Errorf("write language: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close writer: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}
