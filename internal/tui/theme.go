package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Labels are the user-facing strings of the panel.
type Labels struct {
	Title            string
	Idle             string
	Recording        string
	Transcribing     string
	Playback         string
	Transcription    string
	Waiting          string
	PermissionDenied string
	LastError        string
}

// Theme is the static style data handed to the renderer.
type Theme struct {
	Accent     lipgloss.Color // mic at rest
	AccentLive lipgloss.Color // mic while recording
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Subtle     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color
	Labels     Labels
}

func DefaultTheme() Theme {
	return Theme{
		Accent:     lipgloss.Color("#FF5733"),
		AccentLive: lipgloss.Color("#FF3B00"),
		Text:       lipgloss.Color("#333333"),
		Muted:      lipgloss.Color("#94A3B8"),
		Subtle:     lipgloss.Color("#64748B"),
		Success:    lipgloss.Color("#22C55E"),
		Error:      lipgloss.Color("#EF4444"),
		Border:     lipgloss.Color("#F4F4F4"),
		Labels: Labels{
			Title:            "Transcribe your recorded voice",
			Idle:             "Microphone off",
			Recording:        "Recording",
			Transcribing:     "Transcribing",
			Playback:         "Playback",
			Transcription:    "Transcription:",
			Waiting:          "Recording in progress... Please wait.",
			PermissionDenied: "Microphone access is required to record.",
			LastError:        "Last attempt failed",
		},
	}
}

// HuhTheme adapts the palette to huh forms.
func (t Theme) HuhTheme() *huh.Theme {
	h := huh.ThemeBase()

	h.Focused.Title = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	h.Focused.Description = lipgloss.NewStyle().Foreground(t.Muted)
	h.Focused.Base = lipgloss.NewStyle().BorderForeground(t.Accent)
	h.Focused.SelectedOption = lipgloss.NewStyle().Foreground(t.AccentLive)
	h.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(t.Subtle)
	h.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(t.Error)

	h.Blurred.Title = lipgloss.NewStyle().Foreground(t.Muted)
	h.Blurred.Description = lipgloss.NewStyle().Foreground(t.Subtle)

	return h
}
