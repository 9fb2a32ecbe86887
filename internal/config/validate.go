package config

import (
	"fmt"
	"net"
	"net/url"
	"sort"
)

func (c *Config) Validate() error {
	if c.Recording.SampleRate <= 0 {
		return fmt.Errorf("invalid recording.sample_rate: %d", c.Recording.SampleRate)
	}
	if c.Recording.Channels <= 0 {
		return fmt.Errorf("invalid recording.channels: %d", c.Recording.Channels)
	}
	if c.Recording.BufferSize <= 0 {
		return fmt.Errorf("invalid recording.buffer_size: %d", c.Recording.BufferSize)
	}
	if c.Recording.Format != "s16" {
		return fmt.Errorf("invalid recording.format: %q (only s16 is supported)", c.Recording.Format)
	}
	if c.Recording.ChunkInterval <= 0 {
		return fmt.Errorf("invalid recording.chunk_interval: %v", c.Recording.ChunkInterval)
	}
	if c.Recording.Timeout <= 0 {
		return fmt.Errorf("invalid recording.timeout: %v", c.Recording.Timeout)
	}

	switch c.Transcription.Provider {
	case "http":
		if err := validateEndpoint(c.Transcription.Endpoint); err != nil {
			return err
		}
	case "openai":
		if c.resolveAPIKey() == "" {
			return fmt.Errorf("OpenAI API key required: not found in config (transcription.api_key) or environment variables (VOICESCRIBE_API_KEY, OPENAI_API_KEY)")
		}
		if c.Transcription.Model == "" {
			return fmt.Errorf("invalid transcription.model: empty")
		}
		if c.Transcription.Endpoint != "" {
			if err := validateEndpoint(c.Transcription.Endpoint); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("invalid transcription.provider: %q (must be http or openai)", c.Transcription.Provider)
	}
	if c.Transcription.Language != "" && !IsValidLanguageCode(c.Transcription.Language) {
		return fmt.Errorf("invalid transcription.language: %s (use empty string for auto-detect or ISO-639-1 codes like 'en', 'es', 'fr')", c.Transcription.Language)
	}
	if c.Transcription.Timeout < 0 {
		return fmt.Errorf("invalid transcription.timeout: %v", c.Transcription.Timeout)
	}

	validTypes := map[string]bool{"desktop": true, "log": true, "none": true}
	if !validTypes[c.Notifications.Type] {
		return fmt.Errorf("invalid notifications.type: %s (must be desktop, log, or none)", c.Notifications.Type)
	}

	if c.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
			return fmt.Errorf("invalid metrics.listen: %w", err)
		}
	}

	return nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("invalid transcription.endpoint: empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid transcription.endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid transcription.endpoint: %s (must be an http or https URL)", endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid transcription.endpoint: %s (missing host)", endpoint)
	}
	return nil
}

var languageCodes = map[string]bool{
	"en": true, "es": true, "fr": true, "de": true, "it": true, "pt": true,
	"ru": true, "ja": true, "ko": true, "zh": true, "ar": true, "hi": true,
	"nl": true, "sv": true, "da": true, "no": true, "fi": true, "pl": true,
	"tr": true, "he": true, "th": true, "vi": true, "id": true, "ms": true,
	"uk": true, "cs": true, "hu": true, "ro": true, "bg": true, "hr": true,
	"sk": true, "sl": true, "et": true, "lv": true, "lt": true, "mt": true,
	"cy": true, "ga": true, "eu": true, "ca": true, "gl": true, "is": true,
	"mk": true, "sq": true, "az": true, "be": true, "ka": true, "hy": true,
	"kk": true, "ky": true, "tg": true, "uz": true, "mn": true, "ne": true,
	"si": true, "km": true, "lo": true, "my": true, "fa": true, "ps": true,
	"ur": true, "bn": true, "ta": true, "te": true, "ml": true, "kn": true,
	"gu": true, "pa": true, "or": true, "as": true, "mr": true, "sa": true,
	"sw": true, "yo": true, "ig": true, "ha": true, "zu": true, "xh": true,
	"af": true, "am": true, "mg": true, "so": true, "sn": true, "rw": true,
}

func IsValidLanguageCode(code string) bool {
	return languageCodes[code]
}

// LanguageCodes returns the accepted ISO-639-1 codes, sorted.
func LanguageCodes() []string {
	codes := make([]string, 0, len(languageCodes))
	for code := range languageCodes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
