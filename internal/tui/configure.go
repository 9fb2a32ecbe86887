package tui

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/voicescribe/internal/config"
	"github.com/muesli/termenv"
)

// ConfigureResult holds the configuration result from the form
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

// formValues mirrors the editable settings as strings for huh inputs.
type formValues struct {
	provider      string
	endpoint      string
	apiKey        string
	model         string
	language      string
	sampleRate    string
	channels      string
	device        string
	chunkInterval string
	timeout       string
	notifications string
	playback      bool
	metricsListen string
	confirmed     bool
}

func newFormValues(cfg *config.Config) *formValues {
	notifications := cfg.Notifications.Type
	if !cfg.Notifications.Enabled {
		notifications = "none"
	}
	return &formValues{
		provider:      cfg.Transcription.Provider,
		endpoint:      cfg.Transcription.Endpoint,
		apiKey:        cfg.Transcription.APIKey,
		model:         cfg.Transcription.Model,
		language:      cfg.Transcription.Language,
		sampleRate:    strconv.Itoa(cfg.Recording.SampleRate),
		channels:      strconv.Itoa(cfg.Recording.Channels),
		device:        cfg.Recording.Device,
		chunkInterval: cfg.Recording.ChunkInterval.String(),
		timeout:       cfg.Recording.Timeout.String(),
		notifications: notifications,
		playback:      cfg.Playback.Enabled,
		metricsListen: cfg.Metrics.Listen,
	}
}

// apply writes the form values into a copy of cfg and validates it.
func (v *formValues) apply(cfg *config.Config) (*config.Config, error) {
	out := *cfg

	sampleRate, err := strconv.Atoi(v.sampleRate)
	if err != nil {
		return nil, fmt.Errorf("sample rate: %w", err)
	}
	channels, err := strconv.Atoi(v.channels)
	if err != nil {
		return nil, fmt.Errorf("channels: %w", err)
	}
	chunkInterval, err := time.ParseDuration(v.chunkInterval)
	if err != nil {
		return nil, fmt.Errorf("chunk interval: %w", err)
	}
	timeout, err := time.ParseDuration(v.timeout)
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}

	out.Transcription.Provider = v.provider
	out.Transcription.Endpoint = strings.TrimSpace(v.endpoint)
	out.Transcription.APIKey = strings.TrimSpace(v.apiKey)
	out.Transcription.Model = v.model
	out.Transcription.Language = v.language
	out.Recording.SampleRate = sampleRate
	out.Recording.Channels = channels
	out.Recording.Device = strings.TrimSpace(v.device)
	out.Recording.ChunkInterval = chunkInterval
	out.Recording.Timeout = timeout
	out.Notifications.Enabled = v.notifications != "none"
	out.Notifications.Type = v.notifications
	out.Playback.Enabled = v.playback
	out.Metrics.Listen = strings.TrimSpace(v.metricsListen)

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

func languageOptions() []huh.Option[string] {
	options := []huh.Option[string]{huh.NewOption("Auto-detect", "")}
	for _, code := range config.LanguageCodes() {
		options = append(options, huh.NewOption(code, code))
	}
	return options
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fmt.Errorf("must be a duration like 1s, 30s, 5m")
	}
	return nil
}

func validateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an http(s) URL")
	}
	return nil
}

func validateListen(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("must be host:port, e.g. 127.0.0.1:9464")
	}
	return nil
}

func buildConfigureForm(v *formValues, theme Theme) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transcription Backend").
				Description("Where recordings are sent").
				Options(
					huh.NewOption("HTTP endpoint (multipart POST to /transcribe/)", "http"),
					huh.NewOption("OpenAI audio transcriptions", "openai"),
				).
				Value(&v.provider),
			huh.NewInput().
				Title("Endpoint").
				DescriptionFunc(func() string {
					if v.provider == "openai" {
						return "API base URL, e.g. https://api.openai.com/v1"
					}
					return "Base URL; /transcribe/ is appended"
				}, &v.provider).
				Value(&v.endpoint).
				Validate(func(s string) error {
					if s == "" && v.provider == "openai" {
						return nil
					}
					return validateURL(s)
				}),
			huh.NewInput().
				Title("API Key").
				Description("Optional for HTTP, required for OpenAI (or set VOICESCRIBE_API_KEY)").
				EchoMode(huh.EchoModePassword).
				Value(&v.apiKey),
			huh.NewInput().
				Title("Model").
				Description("Used by the OpenAI backend").
				Placeholder("whisper-1").
				Value(&v.model),
			huh.NewSelect[string]().
				Title("Language").
				Options(languageOptions()...).
				Height(8).
				Value(&v.language),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Sample Rate (Hz)").
				Description("16000 is optimal for speech recognition.").
				Placeholder("16000").
				Value(&v.sampleRate).
				Validate(validatePositiveInt),
			huh.NewSelect[string]().
				Title("Channels").
				Options(
					huh.NewOption("1 (Mono) - Recommended", "1"),
					huh.NewOption("2 (Stereo)", "2"),
				).
				Value(&v.channels),
			huh.NewInput().
				Title("Device").
				Description("PipeWire target (empty = default microphone)").
				Value(&v.device),
			huh.NewInput().
				Title("Chunk Interval").
				Placeholder("1s").
				Value(&v.chunkInterval).
				Validate(validateDuration),
			huh.NewInput().
				Title("Maximum Recording Duration").
				Placeholder("5m").
				Value(&v.timeout).
				Validate(validateDuration),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Notifications").
				Options(
					huh.NewOption("Desktop (notify-send)", "desktop"),
					huh.NewOption("Log only", "log"),
					huh.NewOption("None", "none"),
				).
				Value(&v.notifications),
			huh.NewConfirm().
				Title("Keep a playback copy of the last clip?").
				Value(&v.playback),
			huh.NewInput().
				Title("Metrics Listen Address").
				Description("Prometheus /metrics (empty = disabled)").
				Placeholder("127.0.0.1:9464").
				Value(&v.metricsListen).
				Validate(validateListen),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save configuration?").
				Affirmative("Save").
				Negative("Discard").
				Value(&v.confirmed),
		),
	).WithTheme(theme.HuhTheme())
}

// RunConfigure edits cfg interactively.
func RunConfigure(cfg *config.Config, theme Theme) (*ConfigureResult, error) {
	clearScreen()

	v := newFormValues(cfg)
	if err := buildConfigureForm(v, theme).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return &ConfigureResult{Cancelled: true}, nil
		}
		return nil, err
	}
	if !v.confirmed {
		return &ConfigureResult{Cancelled: true}, nil
	}

	updated, err := v.apply(cfg)
	if err != nil {
		return nil, err
	}
	return &ConfigureResult{Config: updated}, nil
}

func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}
