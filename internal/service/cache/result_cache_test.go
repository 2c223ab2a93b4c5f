package cache

import (
	"context"
	"testing"
	"time"

	"NeuroBand/internal/domain/models"
)

func sampleResult() *models.AnalysisResult {
	bp := models.NewBandPowers()
	for i, b := range models.CanonicalBands() {
		bp.Set(b.Name, []float64{float64(i), float64(i) + 0.5})
	}
	return &models.AnalysisResult{
		Time:       []float64{0, 0.5},
		Channels:   []string{"Fz", "Cz"},
		Data:       [][]float64{{1, 2}, {3, 4}},
		BandPowers: bp,
	}
}

func TestResultCacheRoundTripKeepsBandOrder(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache(NewTTLCache(), "", time.Minute)

	if _, ok, err := c.GetResult(ctx); ok || err != nil {
		t.Fatalf("expected empty cache, got ok=%v err=%v", ok, err)
	}
	if err := c.SetResult(ctx, sampleResult()); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := c.GetResult(ctx)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	labels := models.BandLabels(got.BandPowers)
	for i, b := range models.CanonicalBands() {
		if labels[i] != b.Name {
			t.Fatalf("band %d = %q, want %q", i, labels[i], b.Name)
		}
	}
	if v := got.BandPowers.Value("Beta (13-30 Hz)"); len(v) != 2 || v[1] != 3.5 {
		t.Fatalf("beta = %v", v)
	}
	if got.Channels[1] != "Cz" || got.Data[1][0] != 3 {
		t.Fatalf("payload mismatch: %+v", got)
	}
}

func TestTTLCacheExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	c := NewTTLCache()
	c.now = func() time.Time { return now }

	_ = c.SetBytes(ctx, "k", []byte("v"), time.Second)
	if _, ok, _ := c.GetBytes(ctx, "k"); !ok {
		t.Fatalf("expected hit before expiry")
	}
	now = now.Add(2 * time.Second)
	if _, ok, _ := c.GetBytes(ctx, "k"); ok {
		t.Fatalf("expected miss after expiry")
	}
}
