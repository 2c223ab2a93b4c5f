package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestFieldsRendered(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)

	l.Info("ingest ok",
		String("id", "abc"),
		Int("samples", 2560),
		Int64("limit", 1<<25),
		Float64("sample_rate", 256),
		Strings("channels", []string{"Fz", "Cz", "Pz"}),
		Duration("duration_ms", 1500*time.Millisecond),
		Bool("cached", true),
	)

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	want := map[string]interface{}{
		"message":     "ingest ok",
		"id":          "abc",
		"samples":     float64(2560),
		"limit":       float64(1 << 25),
		"sample_rate": float64(256),
		"channels":    "Fz, Cz, Pz",
		"duration_ms": float64(1500),
		"cached":      true,
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s = %v, want %v", k, got[k], v)
		}
	}
}
