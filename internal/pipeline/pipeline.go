package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/leonardotrapani/voicescribe/internal/audio"
	"github.com/leonardotrapani/voicescribe/internal/decode"
	"github.com/leonardotrapani/voicescribe/internal/metrics"
	"github.com/leonardotrapani/voicescribe/internal/notify"
	"github.com/leonardotrapani/voicescribe/internal/playback"
	"github.com/leonardotrapani/voicescribe/internal/recording"
	"github.com/leonardotrapani/voicescribe/internal/transcriber"
	"github.com/leonardotrapani/voicescribe/internal/wavenc"
)

type Status string

const (
	Idle         Status = "idle"
	Recording    Status = "recording"
	Transcribing Status = "transcribing"
)

const permissionMessage = "Microphone access is required to record."

// ErrClosed is returned by Toggle once the pipeline has been closed.
var ErrClosed = errors.New("pipeline closed")

type DecodeFunc func(audio.Blob) (*audio.Buffer, error)

type Deps struct {
	Recorder    *recording.Recorder
	Transcriber transcriber.Transcriber
	Playback    *playback.Store
	Notifier    notify.Notifier
	Metrics     *metrics.Metrics
	Decode      DecodeFunc
}

// Pipeline is the single recording session: one toggle control, the last
// transcription, and the playback reference of the last clip.
type Pipeline struct {
	ctx         context.Context
	recorder    *recording.Recorder
	transcriber transcriber.Transcriber
	playback    *playback.Store
	notifier    notify.Notifier
	metrics     *metrics.Metrics
	decode      DecodeFunc

	toggleMu sync.Mutex // serializes Toggle
	closed   bool       // guarded by toggleMu

	mu            sync.RWMutex
	transcription string
	clipPath      string
	inflight      int
	lastErr       error

	wg sync.WaitGroup
}

// New builds a pipeline. Uploads started by Stop run on ctx, not on the
// context of the toggle that triggered them.
func New(ctx context.Context, d Deps) (*Pipeline, error) {
	if d.Recorder == nil {
		return nil, fmt.Errorf("recorder required")
	}
	if d.Transcriber == nil {
		return nil, fmt.Errorf("transcriber required")
	}
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Decode == nil {
		d.Decode = decode.Decode
	}
	return &Pipeline{
		ctx:         ctx,
		recorder:    d.Recorder,
		transcriber: d.Transcriber,
		playback:    d.Playback,
		notifier:    d.Notifier,
		metrics:     d.Metrics,
		decode:      d.Decode,
	}, nil
}

func (p *Pipeline) Status() Status {
	if p.recorder.IsRecording() {
		return Recording
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.inflight > 0 {
		return Transcribing
	}
	return Idle
}

func (p *Pipeline) Transcription() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.transcription
}

func (p *Pipeline) PlaybackPath() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clipPath
}

// LastError is the failure of the most recent processing attempt, if any.
func (p *Pipeline) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

func (p *Pipeline) Permission() recording.Permission {
	return p.recorder.Permission()
}

func (p *Pipeline) Metrics() *metrics.Metrics { return p.metrics }

// Toggle stops a live recording or starts a new one, and returns the status
// after the switch.
func (p *Pipeline) Toggle(ctx context.Context) (Status, error) {
	p.toggleMu.Lock()
	defer p.toggleMu.Unlock()

	if p.closed {
		return p.Status(), ErrClosed
	}
	if p.recorder.IsRecording() {
		err := p.stop(ctx)
		return p.Status(), err
	}
	err := p.start(ctx)
	return p.Status(), err
}

// Wait blocks until every started upload has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Inherit carries the displayed transcription and playback reference over
// from a pipeline this one replaces. The clip moves into this pipeline's
// store, or is revoked when playback is disabled here.
func (p *Pipeline) Inherit(prev *Pipeline) {
	text, clip := prev.Transcription(), prev.PlaybackPath()
	if clip != "" {
		switch {
		case p.playback != nil:
			p.playback.Adopt(clip)
		case prev.playback != nil:
			if err := prev.playback.Revoke(); err != nil {
				log.Printf("Pipeline: failed to remove clip %s: %v", clip, err)
			}
			clip = ""
		}
	}

	p.mu.Lock()
	p.transcription = text
	p.clipPath = clip
	p.mu.Unlock()
}

// Close discards a live recording without uploading it, waits for uploads
// already in flight and removes the stored clip. Toggle fails afterwards.
func (p *Pipeline) Close(ctx context.Context) {
	p.toggleMu.Lock()
	p.closed = true
	if p.recorder.IsRecording() {
		if _, err := p.recorder.Stop(ctx); err != nil {
			log.Printf("Pipeline: discarding recording: %v", err)
		}
		go p.notifier.RecordingChanged(false)
	}
	p.toggleMu.Unlock()

	// no Toggle can start an upload once closed is set
	p.wg.Wait()

	if p.playback != nil {
		if err := p.playback.Revoke(); err != nil {
			log.Printf("Pipeline: failed to remove playback clip: %v", err)
		}
	}
	p.mu.Lock()
	p.clipPath = ""
	p.mu.Unlock()
}

func (p *Pipeline) start(ctx context.Context) error {
	log.Printf("Pipeline: starting recording")
	if err := p.recorder.RequestPermission(ctx); err != nil {
		if errors.Is(err, recording.ErrPermissionDenied) {
			p.metrics.PermissionDenied.Inc()
			p.notifier.Error(permissionMessage)
		}
		log.Printf("Pipeline: recording error: %v", err)
		return err
	}

	p.metrics.RecordingsStarted.Inc()
	go p.notifier.RecordingChanged(true)
	return nil
}

func (p *Pipeline) stop(ctx context.Context) error {
	log.Printf("Pipeline: stopping recording")
	clip, err := p.recorder.Stop(ctx)
	if err != nil {
		if errors.Is(err, recording.ErrNotRecording) || clip.Blob.Len() == 0 {
			log.Printf("Pipeline: recording error: %v", err)
			return err
		}
		// keep what was captured before the input failed
		log.Printf("Pipeline: capture ended with error, keeping %d bytes: %v", clip.Blob.Len(), err)
	}
	go p.notifier.RecordingChanged(false)

	p.metrics.RecordingDuration.Observe(clip.Duration.Seconds())
	p.metrics.ClipBytes.Observe(float64(clip.Blob.Len()))

	if p.playback != nil {
		path, err := p.playback.Save(clip.Blob)
		if err != nil {
			log.Printf("Pipeline: failed to store playback clip: %v", err)
		} else {
			p.mu.Lock()
			p.clipPath = path
			p.mu.Unlock()
		}
	}

	p.mu.Lock()
	p.inflight++
	p.mu.Unlock()

	p.wg.Add(1)
	go p.finish(clip)
	return nil
}

func (p *Pipeline) finish(clip recording.Clip) {
	defer p.wg.Done()

	text, err := p.Process(p.ctx, clip.Blob)

	p.mu.Lock()
	p.inflight--
	p.lastErr = err
	if err == nil {
		p.transcription = text
	}
	p.mu.Unlock()

	switch {
	case err == nil:
		log.Printf("Pipeline: transcription: %q", text)
		p.notifier.Transcribed(text)
	case errors.Is(err, decode.ErrDecodeFailed):
		log.Printf("Pipeline: %v", err)
		p.notifier.Error("Could not decode the recording.")
	default:
		// previous transcription stays on display
		log.Printf("Pipeline: error during upload: %v", err)
	}
}

// Process decodes a captured blob, encodes it as WAV and uploads it.
func (p *Pipeline) Process(ctx context.Context, blob audio.Blob) (string, error) {
	buf, err := p.decode(blob)
	if err != nil {
		p.metrics.DecodeFailures.Inc()
		if !errors.Is(err, decode.ErrDecodeFailed) {
			err = fmt.Errorf("%w: %v", decode.ErrDecodeFailed, err)
		}
		return "", err
	}

	wav, err := wavenc.Encode(buf)
	if err != nil {
		p.metrics.DecodeFailures.Inc()
		return "", fmt.Errorf("%w: %v", decode.ErrDecodeFailed, err)
	}
	p.metrics.WavBytes.Observe(float64(len(wav)))
	log.Printf("Pipeline: encoded %v of audio into %d WAV bytes", buf.Duration(), len(wav))

	start := time.Now()
	text, err := p.transcriber.Transcribe(ctx, wav)
	p.metrics.UploadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.UploadRequests.WithLabelValues("failed").Inc()
		return "", err
	}
	p.metrics.UploadRequests.WithLabelValues("ok").Inc()
	return text, nil
}
