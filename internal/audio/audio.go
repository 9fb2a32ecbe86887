// Package audio holds the in-memory audio types shared by the recorder,
// decoder, encoder and upload stages.
package audio

import (
	"fmt"
	"time"

	goaudio "github.com/go-audio/audio"
)

const (
	MIMETypeWAV  = "audio/wav"
	MIMETypeAIFF = "audio/aiff"
	MIMETypeL16  = "audio/L16"
)

// Blob is an opaque piece of encoded audio together with its media type.
type Blob struct {
	Data     []byte
	MIMEType string
}

func (b Blob) Len() int { return len(b.Data) }

// Buffer is decoded audio: one slice of samples in [-1, 1] per channel,
// all channels of equal length.
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

func (b *Buffer) NumChannels() int { return len(b.Channels) }

// Len returns the number of samples per channel.
func (b *Buffer) Len() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Len()) * time.Second / time.Duration(b.SampleRate)
}

func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("nil audio buffer")
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", b.SampleRate)
	}
	if len(b.Channels) == 0 {
		return fmt.Errorf("audio buffer has no channels")
	}
	if len(b.Channels) > 0xFFFF {
		return fmt.Errorf("too many channels: %d", len(b.Channels))
	}
	n := len(b.Channels[0])
	for i, ch := range b.Channels[1:] {
		if len(ch) != n {
			return fmt.Errorf("channel %d has %d samples, channel 0 has %d", i+1, len(ch), n)
		}
	}
	return nil
}

// FromFloat32Buffer splits an interleaved go-audio buffer into channels.
func FromFloat32Buffer(src *goaudio.Float32Buffer) (*Buffer, error) {
	if src == nil || src.Format == nil {
		return nil, fmt.Errorf("float buffer without format")
	}
	numChans := src.Format.NumChannels
	if numChans <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", numChans)
	}
	if len(src.Data)%numChans != 0 {
		return nil, fmt.Errorf("%d samples do not divide into %d channels", len(src.Data), numChans)
	}

	frames := len(src.Data) / numChans
	buf := &Buffer{
		SampleRate: src.Format.SampleRate,
		Channels:   make([][]float32, numChans),
	}
	for c := range buf.Channels {
		buf.Channels[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < numChans; c++ {
			buf.Channels[c][i] = src.Data[i*numChans+c]
		}
	}
	return buf, nil
}

// FromIntBuffer normalizes integer PCM by its source bit depth and splits it
// into channels.
func FromIntBuffer(src *goaudio.IntBuffer) (*Buffer, error) {
	if src == nil || src.Format == nil {
		return nil, fmt.Errorf("int buffer without format")
	}
	bitDepth := src.SourceBitDepth
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}

	scale := float32(int64(1) << uint(bitDepth-1))
	fb := &goaudio.Float32Buffer{
		Format: src.Format,
		Data:   make([]float32, len(src.Data)),
	}
	for i, v := range src.Data {
		fb.Data[i] = clamp(float32(v) / scale)
	}
	return FromFloat32Buffer(fb)
}

func clamp(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
