// Package decode turns captured or uploaded audio blobs into decoded sample
// buffers ready for WAV encoding.
package decode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"strconv"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/aiff"
	"github.com/go-audio/wav"
	"github.com/leonardotrapani/voicescribe/internal/audio"
)

// ErrDecodeFailed is returned when a blob cannot be turned into samples.
var ErrDecodeFailed = errors.New("decode failed")

// Decode dispatches on the blob media type. An empty or generic type falls
// back to sniffing the container magic.
func Decode(blob audio.Blob) (*audio.Buffer, error) {
	if len(blob.Data) == 0 && !strings.HasPrefix(strings.ToLower(blob.MIMEType), strings.ToLower(audio.MIMETypeL16)) {
		return nil, fmt.Errorf("%w: empty input", ErrDecodeFailed)
	}

	mediaType, params, err := parseMediaType(blob.MIMEType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	switch mediaType {
	case "audio/l16":
		return decodeL16(blob.Data, params)
	case "audio/wav", "audio/wave", "audio/x-wav", "audio/vnd.wave":
		return decodeWAV(blob.Data)
	case "audio/aiff", "audio/x-aiff":
		return decodeAIFF(blob.Data)
	case "", "application/octet-stream":
		return sniff(blob.Data)
	default:
		return nil, fmt.Errorf("%w: unsupported media type %q", ErrDecodeFailed, blob.MIMEType)
	}
}

// L16Type builds the media type the recorder attaches to raw captures.
func L16Type(sampleRate, channels int) string {
	return mime.FormatMediaType(audio.MIMETypeL16, map[string]string{
		"rate":     strconv.Itoa(sampleRate),
		"channels": strconv.Itoa(channels),
	})
}

func parseMediaType(v string) (string, map[string]string, error) {
	if v == "" {
		return "", nil, nil
	}
	mediaType, params, err := mime.ParseMediaType(v)
	if err != nil {
		return "", nil, fmt.Errorf("parse media type %q: %w", v, err)
	}
	return strings.ToLower(mediaType), params, nil
}

func sniff(data []byte) (*audio.Buffer, error) {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return decodeWAV(data)
	case len(data) >= 12 && string(data[0:4]) == "FORM" && (string(data[8:12]) == "AIFF" || string(data[8:12]) == "AIFC"):
		return decodeAIFF(data)
	default:
		return nil, fmt.Errorf("%w: unrecognized container", ErrDecodeFailed)
	}
}

// decodeL16 reads raw signed 16-bit little-endian PCM, interleaved.
func decodeL16(data []byte, params map[string]string) (*audio.Buffer, error) {
	rate, err := intParam(params, "rate", 0)
	if err != nil {
		return nil, err
	}
	if rate <= 0 {
		return nil, fmt.Errorf("%w: L16 audio without sample rate", ErrDecodeFailed)
	}
	channels, err := intParam(params, "channels", 1)
	if err != nil {
		return nil, err
	}
	if channels <= 0 {
		return nil, fmt.Errorf("%w: invalid channel count %d", ErrDecodeFailed, channels)
	}

	frameSize := 2 * channels
	if len(data)%frameSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d-byte frames", ErrDecodeFailed, len(data), frameSize)
	}

	frames := len(data) / frameSize
	buf := &audio.Buffer{SampleRate: rate, Channels: make([][]float32, channels)}
	for c := range buf.Channels {
		buf.Channels[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := (i*channels + c) * 2
			s := int16(binary.LittleEndian.Uint16(data[off:]))
			buf.Channels[c][i] = float32(s) / 32768
		}
	}
	return buf, nil
}

func intParam(params map[string]string, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s parameter %q", ErrDecodeFailed, key, v)
	}
	return n, nil
}

// WAV format tags from the fmt chunk.
const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

func decodeWAV(data []byte) (*audio.Buffer, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid WAV file", ErrDecodeFailed)
	}

	switch d.WavAudioFormat {
	case wavFormatPCM:
		return decodeWAVPCM(d)
	case wavFormatFloat:
		return decodeWAVFloat(d)
	default:
		return nil, fmt.Errorf("%w: unsupported WAV format tag %d", ErrDecodeFailed, d.WavAudioFormat)
	}
}

func decodeWAVPCM(d *wav.Decoder) (*audio.Buffer, error) {
	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: read WAV samples: %v", ErrDecodeFailed, err)
	}
	if pcm.SourceBitDepth == 0 {
		pcm.SourceBitDepth = int(d.BitDepth)
	}
	// 8-bit WAV samples are unsigned with silence at 128
	if pcm.SourceBitDepth == 8 {
		for i, v := range pcm.Data {
			pcm.Data[i] = v - 128
		}
	}
	buf, err := audio.FromIntBuffer(pcm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return buf, nil
}

// decodeWAVFloat reads IEEE float samples, which the go-audio integer
// decoder would misread as PCM.
func decodeWAVFloat(d *wav.Decoder) (*audio.Buffer, error) {
	if err := d.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: find WAV samples: %v", ErrDecodeFailed, err)
	}
	if d.PCMChunk == nil {
		return nil, fmt.Errorf("%w: WAV file has no data chunk", ErrDecodeFailed)
	}
	raw, err := io.ReadAll(d.PCMChunk)
	if err != nil {
		return nil, fmt.Errorf("%w: read WAV samples: %v", ErrDecodeFailed, err)
	}

	var (
		size int
		read func([]byte) float32
	)
	switch d.BitDepth {
	case 32:
		size = 4
		read = func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) }
	case 64:
		size = 8
		read = func(b []byte) float32 { return float32(math.Float64frombits(binary.LittleEndian.Uint64(b))) }
	default:
		return nil, fmt.Errorf("%w: unsupported float bit depth %d", ErrDecodeFailed, d.BitDepth)
	}

	n := len(raw) / size
	fb := &goaudio.Float32Buffer{
		Format: &goaudio.Format{NumChannels: int(d.NumChans), SampleRate: int(d.SampleRate)},
		Data:   make([]float32, n),
	}
	for i := range fb.Data {
		v := read(raw[i*size:])
		if math.IsNaN(float64(v)) {
			return nil, fmt.Errorf("%w: NaN sample at %d", ErrDecodeFailed, i)
		}
		fb.Data[i] = min(max(v, -1), 1)
	}

	buf, err := audio.FromFloat32Buffer(fb)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return buf, nil
}

func decodeAIFF(data []byte) (*audio.Buffer, error) {
	d := aiff.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid AIFF file", ErrDecodeFailed)
	}
	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: read AIFF samples: %v", ErrDecodeFailed, err)
	}
	if pcm.SourceBitDepth == 0 {
		pcm.SourceBitDepth = int(d.BitDepth)
	}
	buf, err := audio.FromIntBuffer(pcm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return buf, nil
}
