package notify

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		kind string
		want Notifier
	}{
		{"desktop", Desktop{}},
		{"log", Log{}},
		{"none", Nop{}},
		{"", Nop{}},
	}
	for _, tt := range tests {
		if got := New(tt.kind); got != tt.want {
			t.Errorf("New(%q) = %T, want %T", tt.kind, got, tt.want)
		}
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	n := Log{}

	tests := []struct {
		name string
		call func()
		want string
	}{
		{"recording started", func() { n.RecordingChanged(true) }, "Recording Started"},
		{"recording stopped", func() { n.RecordingChanged(false) }, "Recording Stopped"},
		{"transcribed", func() { n.Transcribed("hello world") }, "Transcription: hello world"},
		{"error", func() { n.Error("microphone refused") }, "Error: microphone refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.call()
			out := buf.String()
			if !strings.Contains(out, "Voicescribe") || !strings.Contains(out, tt.want) {
				t.Errorf("log output %q should contain %q", out, tt.want)
			}
		})
	}
}

func TestNopNotifier(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	n := Nop{}
	n.RecordingChanged(true)
	n.Transcribed("text")
	n.Error("err")

	if buf.Len() != 0 {
		t.Errorf("Nop should not log, got %q", buf.String())
	}
}
