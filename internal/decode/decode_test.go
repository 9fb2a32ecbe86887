package decode

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/leonardotrapani/voicescribe/internal/audio"
	"github.com/leonardotrapani/voicescribe/internal/wavenc"
)

func TestDecodeL16(t *testing.T) {
	raw := make([]byte, 8)
	samples := []int16{16384, -16384, 32767, -32768}
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}

	buf, err := Decode(audio.Blob{Data: raw, MIMEType: L16Type(16000, 2)})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if buf.SampleRate != 16000 {
		t.Errorf("sample rate: got %d", buf.SampleRate)
	}
	if buf.NumChannels() != 2 || buf.Len() != 2 {
		t.Fatalf("shape: got %d channels x %d frames", buf.NumChannels(), buf.Len())
	}
	if buf.Channels[0][0] != 0.5 || buf.Channels[1][0] != -0.5 {
		t.Errorf("first frame: got %v %v", buf.Channels[0][0], buf.Channels[1][0])
	}
	if buf.Channels[1][1] != -1 {
		t.Errorf("min sample: got %v", buf.Channels[1][1])
	}
}

func TestDecodeL16Errors(t *testing.T) {
	tests := []struct {
		name string
		blob audio.Blob
	}{
		{"missing rate", audio.Blob{Data: make([]byte, 4), MIMEType: "audio/L16"}},
		{"bad channels", audio.Blob{Data: make([]byte, 4), MIMEType: "audio/L16; rate=8000; channels=x"}},
		{"partial frame", audio.Blob{Data: make([]byte, 3), MIMEType: L16Type(8000, 1)}},
		{"unsupported type", audio.Blob{Data: make([]byte, 4), MIMEType: "audio/ogg"}},
		{"garbage sniff", audio.Blob{Data: []byte("not audio at all")}},
		{"empty container", audio.Blob{MIMEType: "audio/wav"}},
		{"broken wav", audio.Blob{Data: []byte("RIFF\x00\x00\x00\x00WAVEjunk"), MIMEType: "audio/wav"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.blob)
			if !errors.Is(err, ErrDecodeFailed) {
				t.Errorf("expected ErrDecodeFailed, got %v", err)
			}
		})
	}
}

func TestDecodeEmptyL16(t *testing.T) {
	buf, err := Decode(audio.Blob{MIMEType: L16Type(44100, 1)})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if buf.Len() != 0 || buf.NumChannels() != 1 {
		t.Errorf("expected empty mono buffer, got %d x %d", buf.NumChannels(), buf.Len())
	}
}

func TestDecodeWAV(t *testing.T) {
	src := &audio.Buffer{
		SampleRate: 22050,
		Channels: [][]float32{
			{0, 0.25, -0.25, 0.75},
			{1, -1, 0.5, 0},
		},
	}
	data, err := wavenc.Encode(src)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	for _, mimeType := range []string{"audio/wav", "audio/x-wav", ""} {
		t.Run("type "+mimeType, func(t *testing.T) {
			buf, err := Decode(audio.Blob{Data: data, MIMEType: mimeType})
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			assertClose(t, src, buf)
		})
	}
}

func TestDecodeAIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.aiff")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := aiff.NewEncoder(f, 8000, 16, 1)
	pcm := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           []int{0, 8192, -8192, 16384},
		SourceBitDepth: 16,
	}
	if err := enc.Write(pcm); err != nil {
		t.Fatalf("write aiff: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close aiff: %v", err)
	}
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	buf, err := Decode(audio.Blob{Data: data})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := &audio.Buffer{SampleRate: 8000, Channels: [][]float32{{0, 0.25, -0.25, 0.5}}}
	assertClose(t, want, buf)
}

func TestDecodeWAVFromGoAudioEncoder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, 16000, 16, 1, 1)
	pcm := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 16000},
		Data:           []int{-16384, 0, 16384},
		SourceBitDepth: 16,
	}
	if err := enc.Write(pcm); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	buf, err := Decode(audio.Blob{Data: data, MIMEType: "audio/wav"})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := &audio.Buffer{SampleRate: 16000, Channels: [][]float32{{-0.5, 0, 0.5}}}
	assertClose(t, want, buf)
}

// rawWAV assembles a minimal RIFF/WAVE file around already encoded samples.
func rawWAV(format, bits, channels, rate int, samples []byte) []byte {
	blockAlign := channels * bits / 8
	out := make([]byte, 44, 44+len(samples))
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+len(samples)))
	copy(out[8:], "WAVEfmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], uint16(format))
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(rate))
	binary.LittleEndian.PutUint32(out[28:], uint32(rate*blockAlign))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], uint16(bits))
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(len(samples)))
	return append(out, samples...)
}

func TestDecodeWAV8BitIsUnsigned(t *testing.T) {
	data := rawWAV(1, 8, 1, 8000, []byte{128, 0, 255, 192})

	buf, err := Decode(audio.Blob{Data: data, MIMEType: "audio/wav"})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := &audio.Buffer{SampleRate: 8000, Channels: [][]float32{{0, -1, 127.0 / 128, 0.5}}}
	assertClose(t, want, buf)
}

func TestDecodeWAVFloat(t *testing.T) {
	samples := []float32{0.5, -0.25, 1.5, -1}
	raw := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(s))
	}
	data := rawWAV(3, 32, 2, 16000, raw)

	buf, err := Decode(audio.Blob{Data: data, MIMEType: "audio/wav"})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	// out-of-range samples are clamped
	want := &audio.Buffer{SampleRate: 16000, Channels: [][]float32{{0.5, 1}, {-0.25, -1}}}
	assertClose(t, want, buf)
}

func TestDecodeWAVFloat64(t *testing.T) {
	raw := make([]byte, 16)
	binary.LittleEndian.PutUint64(raw[0:], math.Float64bits(-0.75))
	binary.LittleEndian.PutUint64(raw[8:], math.Float64bits(0.125))

	buf, err := Decode(audio.Blob{Data: rawWAV(3, 64, 1, 8000, raw)})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := &audio.Buffer{SampleRate: 8000, Channels: [][]float32{{-0.75, 0.125}}}
	assertClose(t, want, buf)
}

func TestDecodeWAVUnsupportedFormat(t *testing.T) {
	// 7 is mu-law
	data := rawWAV(7, 8, 1, 8000, []byte{1, 2, 3, 4})
	if _, err := Decode(audio.Blob{Data: data, MIMEType: "audio/wav"}); !errors.Is(err, ErrDecodeFailed) {
		t.Fatalf("expected ErrDecodeFailed, got %v", err)
	}
}

func assertClose(t *testing.T, want, got *audio.Buffer) {
	t.Helper()
	if got.SampleRate != want.SampleRate {
		t.Errorf("sample rate: got %d, want %d", got.SampleRate, want.SampleRate)
	}
	if got.NumChannels() != want.NumChannels() || got.Len() != want.Len() {
		t.Fatalf("shape: got %dx%d, want %dx%d", got.NumChannels(), got.Len(), want.NumChannels(), want.Len())
	}
	for c := range want.Channels {
		for i := range want.Channels[c] {
			if math.Abs(float64(got.Channels[c][i]-want.Channels[c][i])) > 2.0/32767 {
				t.Errorf("channel %d sample %d: got %f, want %f", c, i, got.Channels[c][i], want.Channels[c][i])
			}
		}
	}
}
