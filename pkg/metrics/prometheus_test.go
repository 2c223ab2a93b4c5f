package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordIngestion("upload", "ok")
	r.RecordIngestion("upload", "ok")
	r.RecordIngestion("generate", "storage")
	r.RecordError("parse")
	r.RecordStoredSamples(7680)
	r.RecordStoredSamples(10)

	if got := testutil.ToFloat64(r.ingestions.WithLabelValues("upload", "ok")); got != 2 {
		t.Fatalf("upload ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.errorsTotal.WithLabelValues("parse")); got != 1 {
		t.Fatalf("parse errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.storedSamples); got != 10 {
		t.Fatalf("stored samples = %v, want 10", got)
	}
	if got := testutil.ToFloat64(r.samplesWritten); got != 7690 {
		t.Fatalf("samples written = %v, want 7690", got)
	}
}
