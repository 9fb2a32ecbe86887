// Package wavenc turns decoded audio into a canonical 16-bit PCM WAV stream.
package wavenc

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/leonardotrapani/voicescribe/internal/audio"
)

const (
	HeaderSize     = 44
	bitsPerSample  = 16
	bytesPerSample = bitsPerSample / 8
	formatPCM      = 1
	fmtChunkSize   = 16
)

// DataSize is the size of the PCM payload for the given buffer shape.
func DataSize(frames, channels int) int {
	return frames * channels * bytesPerSample
}

// Encode writes the RIFF/WAVE header followed by the interleaved samples.
// A buffer with zero frames still yields a complete 44-byte header.
func Encode(buf *audio.Buffer) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}

	channels := buf.NumChannels()
	frames := buf.Len()
	dataSize := DataSize(frames, channels)
	if uint64(dataSize)+HeaderSize-8 > math.MaxUint32 {
		return nil, fmt.Errorf("encode wav: %d bytes of PCM exceed the RIFF size limit", dataSize)
	}
	byteRate := uint64(buf.SampleRate) * uint64(channels) * bytesPerSample
	if byteRate > math.MaxUint32 {
		return nil, fmt.Errorf("encode wav: sample rate %d does not fit the header", buf.SampleRate)
	}
	if channels*bytesPerSample > math.MaxUint16 {
		return nil, fmt.Errorf("encode wav: %d channels do not fit the header", channels)
	}

	out := make([]byte, HeaderSize+dataSize)
	le := binary.LittleEndian

	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], uint32(len(out)-8))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], fmtChunkSize)
	le.PutUint16(out[20:22], formatPCM)
	le.PutUint16(out[22:24], uint16(channels))
	le.PutUint32(out[24:28], uint32(buf.SampleRate))
	le.PutUint32(out[28:32], uint32(byteRate))
	le.PutUint16(out[32:34], uint16(channels*bytesPerSample))
	le.PutUint16(out[34:36], bitsPerSample)

	copy(out[36:40], "data")
	le.PutUint32(out[40:44], uint32(dataSize))

	offset := HeaderSize
	for _, s := range Interleave(buf) {
		le.PutUint16(out[offset:], uint16(Quantize(s)))
		offset += bytesPerSample
	}

	return out, nil
}

// EncodeBlob is Encode with the result typed as audio/wav.
func EncodeBlob(buf *audio.Buffer) (audio.Blob, error) {
	data, err := Encode(buf)
	if err != nil {
		return audio.Blob{}, err
	}
	return audio.Blob{Data: data, MIMEType: audio.MIMETypeWAV}, nil
}

// Interleave flattens the channels frame by frame.
func Interleave(buf *audio.Buffer) []float32 {
	channels := buf.NumChannels()
	frames := buf.Len()
	out := make([]float32, 0, frames*channels)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			out = append(out, buf.Channels[c][i])
		}
	}
	return out
}

// Quantize maps s in [-1, 1] to a signed 16-bit sample, rounding to nearest.
// Out of range input is clamped; NaN becomes silence.
func Quantize(s float32) int16 {
	if s != s {
		return 0
	}
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(math.Round(float64(s) * math.MaxInt16))
}
