// Package metrics exposes Prometheus counters for the recording pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for voicescribe
type Metrics struct {
	registry *prometheus.Registry

	// Recording metrics
	RecordingsStarted prometheus.Counter
	PermissionDenied  prometheus.Counter
	RecordingDuration prometheus.Histogram
	ClipBytes         prometheus.Histogram

	// Processing metrics
	DecodeFailures prometheus.Counter
	WavBytes       prometheus.Histogram

	// Upload metrics
	UploadRequests *prometheus.CounterVec
	UploadDuration prometheus.Histogram
}

// New creates the metrics on a private registry so several pipelines (and
// tests) can coexist in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RecordingsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicescribe_recordings_started_total",
			Help: "Total number of recording sessions started",
		}),
		PermissionDenied: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicescribe_permission_denied_total",
			Help: "Total number of refused microphone requests",
		}),
		RecordingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicescribe_recording_duration_seconds",
			Help:    "Length of finalized recordings",
			Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300},
		}),
		ClipBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicescribe_clip_bytes",
			Help:    "Size of captured clips before decoding",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
		}),
		DecodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicescribe_decode_failures_total",
			Help: "Total number of clips that could not be decoded",
		}),
		WavBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicescribe_wav_bytes",
			Help:    "Size of encoded WAV streams",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
		}),
		UploadRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicescribe_upload_requests_total",
			Help: "Transcription uploads by result",
		}, []string{"result"}),
		UploadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicescribe_upload_duration_seconds",
			Help:    "Time spent waiting for the transcription endpoint",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
