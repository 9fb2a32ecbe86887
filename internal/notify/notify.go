package notify

import (
	"fmt"
	"log"
	"os/exec"
)

const appName = "Voicescribe"

type Notifier interface {
	RecordingChanged(on bool)
	Transcribed(text string)
	Error(msg string)
}

// New returns the notifier for a notifications.type value.
func New(kind string) Notifier {
	switch kind {
	case "desktop":
		return Desktop{}
	case "log":
		return Log{}
	default:
		return Nop{}
	}
}

type Desktop struct{}

func (Desktop) RecordingChanged(on bool) {
	state := "Stopped"
	if on {
		state = "Started"
	}
	cmd := exec.Command("notify-send", "-a", appName,
		fmt.Sprintf("%s: %s Recording", appName, state))
	if err := cmd.Run(); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}
}

func (Desktop) Transcribed(text string) {
	cmd := exec.Command("notify-send", "-a", appName, "Transcription", text)
	if err := cmd.Run(); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}
}

// Error raises a critical notification, which stays on screen until the
// user dismisses it.
func (Desktop) Error(msg string) {
	cmd := exec.Command("notify-send", "-a", appName, "-u", "critical", msg)
	if err := cmd.Run(); err != nil {
		log.Printf("Failed to send error notification: %v", err)
	}
}

// Log writes notifications to the standard logger.
type Log struct{}

func (Log) RecordingChanged(on bool) {
	if on {
		log.Printf("%s: Recording Started", appName)
		return
	}
	log.Printf("%s: Recording Stopped", appName)
}

func (Log) Transcribed(text string) { log.Printf("%s: Transcription: %s", appName, text) }
func (Log) Error(msg string)        { log.Printf("%s: Error: %s", appName, msg) }

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) RecordingChanged(on bool) {}
func (Nop) Transcribed(text string)  {}
func (Nop) Error(msg string)         {}
