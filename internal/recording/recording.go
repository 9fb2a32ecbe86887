package recording

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/leonardotrapani/voicescribe/internal/audio"
	"github.com/leonardotrapani/voicescribe/internal/decode"
)

var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not recording")
)

type Permission string

const (
	PermissionUnknown Permission = "unknown"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

type Config struct {
	SampleRate    int
	Channels      int
	Format        string
	BufferSize    int
	Device        string
	ChunkInterval time.Duration
	Timeout       time.Duration
}

func DefaultConfig() Config {
	return Config{
		SampleRate:    16000,
		Channels:      1,
		Format:        "s16",
		BufferSize:    8192,
		Device:        "",
		ChunkInterval: time.Second,
		Timeout:       5 * time.Minute,
	}
}

// Source opens a live audio input. Failing to open it is how the platform
// refuses microphone access.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Clip is the finalized capture of one session.
type Clip struct {
	Blob     audio.Blob
	Chunks   int
	Started  time.Time
	Duration time.Duration
}

type session struct {
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	started  time.Time
	ended    time.Time
	err      error
}

// Recorder owns the permission state and at most one capture session.
type Recorder struct {
	config Config
	source Source

	mu         sync.Mutex // guards everything below
	permission Permission
	chunks     [][]byte
	current    *session
}

func NewRecorder(config Config, source Source) *Recorder {
	return &Recorder{
		config:     config,
		source:     source,
		permission: PermissionUnknown,
	}
}

func (r *Recorder) Config() Config { return r.config }

func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil
}

func (r *Recorder) Permission() Permission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.permission
}

// MediaType describes the blobs produced by this recorder.
func (r *Recorder) MediaType() string {
	return decode.L16Type(r.config.SampleRate, r.config.Channels)
}

// RequestPermission opens the microphone and, on success, starts recording
// straight away so the user is not prompted on every toggle.
func (r *Recorder) RequestPermission(ctx context.Context) error {
	if r.IsRecording() {
		return ErrAlreadyRecording
	}
	if err := r.validateConfig(); err != nil {
		return err
	}

	log.Printf("Recording: requesting microphone access")
	input, err := r.source.Open(ctx)
	if err != nil {
		r.setPermission(PermissionDenied)
		log.Printf("Recording: microphone access denied: %v", err)
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	r.setPermission(PermissionGranted)
	log.Printf("Recording: microphone access granted")

	if err := r.Start(input); err != nil {
		input.Close()
		return err
	}
	return nil
}

// Start begins buffering chunks from input. A second Start while a session
// is live is rejected and leaves the current chunk buffer untouched.
func (r *Recorder) Start(input io.ReadCloser) error {
	if input == nil {
		return fmt.Errorf("nil audio input")
	}
	if err := r.validateConfig(); err != nil {
		return err
	}

	r.mu.Lock()
	if r.current != nil {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	s := &session{
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		started: time.Now(),
	}
	r.chunks = nil
	r.current = s
	r.mu.Unlock()

	go r.captureLoop(s, input)

	log.Printf("Recording: started (chunk interval %v)", r.config.ChunkInterval)
	return nil
}

// Stop finalizes the live session and returns the concatenated clip. It
// returns only after the last chunk has been flushed.
func (r *Recorder) Stop(ctx context.Context) (Clip, error) {
	r.mu.Lock()
	s := r.current
	r.mu.Unlock()
	if s == nil {
		return Clip{}, ErrNotRecording
	}

	r.signalStop(s)

	select {
	case <-s.done:
	case <-ctx.Done():
		return Clip{}, ctx.Err()
	}

	r.mu.Lock()
	chunks := r.chunks
	r.chunks = nil
	if r.current == s {
		r.current = nil
	}
	r.mu.Unlock()

	clip := Clip{
		Blob: audio.Blob{
			Data:     bytes.Join(chunks, nil),
			MIMEType: r.MediaType(),
		},
		Chunks:   len(chunks),
		Started:  s.started,
		Duration: s.ended.Sub(s.started),
	}

	log.Printf("Recording: stopped, %d chunks, %d bytes", clip.Chunks, clip.Blob.Len())
	if s.err != nil {
		return clip, fmt.Errorf("capture: %w", s.err)
	}
	return clip, nil
}

// ChunkCount reports how many chunks the live session has buffered so far.
func (r *Recorder) ChunkCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chunks)
}

func (r *Recorder) signalStop(s *session) {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (r *Recorder) setPermission(p Permission) {
	r.mu.Lock()
	r.permission = p
	r.mu.Unlock()
}

func (r *Recorder) appendChunk(s *session, chunk []byte) {
	r.mu.Lock()
	if r.current == s {
		r.chunks = append(r.chunks, chunk)
	}
	r.mu.Unlock()
}

func (r *Recorder) captureLoop(s *session, input io.ReadCloser) {
	dataCh := make(chan []byte, 16)
	readErrCh := make(chan error, 1)

	go func() {
		defer close(dataCh)
		buffer := make([]byte, r.config.BufferSize)
		for {
			n, err := input.Read(buffer)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buffer[:n])
				dataCh <- data
			}
			if err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) && !errors.Is(err, os.ErrClosed) {
					readErrCh <- err
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(r.config.ChunkInterval)
	defer ticker.Stop()

	var timeout <-chan time.Time
	if r.config.Timeout > 0 {
		timer := time.NewTimer(r.config.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var pending []byte
	flush := func() {
		if len(pending) == 0 {
			return
		}
		r.appendChunk(s, pending)
		pending = nil
	}

	finish := func() {
		if err := input.Close(); err != nil {
			log.Printf("Recording: closing input: %v", err)
		}
		for data := range dataCh {
			pending = append(pending, data...)
		}
		flush()
		select {
		case err := <-readErrCh:
			s.err = err
		default:
		}
		s.ended = time.Now()
		close(s.done)
	}

	for {
		select {
		case data, ok := <-dataCh:
			if !ok {
				flush()
				select {
				case err := <-readErrCh:
					log.Printf("Recording: read error: %v", err)
					s.err = err
				default:
					log.Printf("Recording: input ended")
				}
				input.Close()
				s.ended = time.Now()
				close(s.done)
				return
			}
			pending = append(pending, data...)

		case <-ticker.C:
			flush()

		case <-timeout:
			log.Printf("Recording: timeout of %v reached, finalizing", r.config.Timeout)
			finish()
			return

		case <-s.stop:
			finish()
			return
		}
	}
}

func (r *Recorder) validateConfig() error {
	if r.config.SampleRate <= 0 {
		return fmt.Errorf("invalid SampleRate: %d", r.config.SampleRate)
	}
	if r.config.Channels <= 0 {
		return fmt.Errorf("invalid Channels: %d", r.config.Channels)
	}
	if r.config.BufferSize <= 0 {
		return fmt.Errorf("invalid BufferSize: %d", r.config.BufferSize)
	}
	if r.config.ChunkInterval <= 0 {
		return fmt.Errorf("invalid ChunkInterval: %v", r.config.ChunkInterval)
	}
	if r.config.Format != "s16" {
		return fmt.Errorf("unsupported Format: %q (only s16)", r.config.Format)
	}
	frameBytes := 2 * r.config.Channels
	if r.config.BufferSize%frameBytes != 0 {
		log.Printf("Recording: BufferSize %d not aligned to frame size %d; reads may split frames",
			r.config.BufferSize, frameBytes)
	}
	return nil
}
