package tui

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/leonardotrapani/voicescribe/internal/bus"
	"github.com/muesli/termenv"
)

// View is the state the panel draws.
type View struct {
	Status        string // idle, recording, transcribing
	Permission    string // unknown, granted, denied
	Transcription string
	PlaybackPath  string
	Error         string
}

// ViewFromReply reads a daemon STATUS line.
func ViewFromReply(reply string) View {
	var v View
	v.Status, _ = bus.Field(reply, "status")
	v.Permission, _ = bus.Field(reply, "permission")
	v.Transcription, _ = bus.Field(reply, "transcription")
	v.PlaybackPath, _ = bus.Field(reply, "clip")
	v.Error, _ = bus.Field(reply, "error")
	return v
}

type Renderer struct {
	theme Theme
	lg    *lipgloss.Renderer
}

// NewRenderer detects the color profile of w.
func NewRenderer(w io.Writer, theme Theme) *Renderer {
	return &Renderer{theme: theme, lg: lipgloss.NewRenderer(w)}
}

// WithProfile forces a color profile, e.g. termenv.Ascii for plain text.
func (r *Renderer) WithProfile(p termenv.Profile) *Renderer {
	r.lg.SetColorProfile(p)
	return r
}

// RenderPanel draws the title, mic state, playback reference and the
// transcription panel. Until a transcription exists the panel shows the
// waiting placeholder.
func (r *Renderer) RenderPanel(v View) string {
	t := r.theme
	style := r.lg.NewStyle

	var b strings.Builder
	b.WriteString(style().Bold(true).Foreground(t.Text).Render(t.Labels.Title))
	b.WriteString("\n\n")
	b.WriteString(r.micLine(v.Status))
	b.WriteString("\n")

	if v.Permission == "denied" && v.Status != "recording" {
		b.WriteString(style().Foreground(t.Error).Bold(true).Render(t.Labels.PermissionDenied))
		b.WriteString("\n")
	}

	if v.PlaybackPath != "" {
		b.WriteString(style().Foreground(t.Muted).Render(t.Labels.Playback + ": " + v.PlaybackPath))
		b.WriteString("\n")
	}

	var body string
	if v.Transcription != "" {
		body = style().Bold(true).Render(t.Labels.Transcription) + " " + v.Transcription
	} else {
		body = style().Foreground(t.Subtle).Italic(true).Render(t.Labels.Waiting)
	}
	b.WriteString(style().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(1, 2).
		Render(body))

	if v.Error != "" {
		b.WriteString("\n")
		b.WriteString(style().Foreground(t.Subtle).Render(t.Labels.LastError + ": " + v.Error))
	}
	return b.String()
}

func (r *Renderer) micLine(status string) string {
	t := r.theme
	mic := r.lg.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case "recording":
		return mic.Background(t.AccentLive).Foreground(lipgloss.Color("#FFFFFF")).Render("● " + t.Labels.Recording)
	case "transcribing":
		return mic.Foreground(t.Accent).Render("… " + t.Labels.Transcribing)
	default:
		return mic.Foreground(t.Accent).Render("○ " + t.Labels.Idle)
	}
}
