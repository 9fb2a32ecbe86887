package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsIndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.RecordingsStarted.Inc()
	a.UploadRequests.WithLabelValues("ok").Inc()
	a.UploadRequests.WithLabelValues("failed").Add(2)

	if got := testutil.ToFloat64(a.RecordingsStarted); got != 1 {
		t.Errorf("recordings started: got %v", got)
	}
	if got := testutil.ToFloat64(b.RecordingsStarted); got != 0 {
		t.Errorf("second registry should be untouched, got %v", got)
	}
	if got := testutil.ToFloat64(a.UploadRequests.WithLabelValues("failed")); got != 2 {
		t.Errorf("failed uploads: got %v", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	m := New()
	m.DecodeFailures.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "voicescribe_decode_failures_total 1") {
		t.Errorf("metrics output missing counter:\n%s", body)
	}
}
