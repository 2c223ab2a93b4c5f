package spectral

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/floats"

	"NeuroBand/internal/domain/models"
)

func sine(n int, fs, freq, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/fs)
	}
	return out
}

func timeAxis(n int, fs float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) / fs
	}
	return out
}

func TestWelchParseval(t *testing.T) {
	w, err := NewWelch(WelchConfig{NFFT: 1024, FMin: 0, FMax: 128})
	if err != nil {
		t.Fatalf("new welch: %v", err)
	}
	psd, err := w.Estimate(sine(2560, 256, 10, 1), 256)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	df := 256.0 / 1024
	total := floats.Sum(psd.Power) * df
	if math.Abs(total-0.5)/0.5 > 0.05 {
		t.Fatalf("integrated power = %v, want ~0.5", total)
	}
	peak := floats.MaxIdx(psd.Power)
	if psd.Freqs[peak] != 10 {
		t.Fatalf("peak at %v Hz, want 10", psd.Freqs[peak])
	}
}

func TestWelchFrequencyRange(t *testing.T) {
	w, _ := NewWelch(WelchConfig{NFFT: 1024, FMin: 0.5, FMax: 100})
	psd, err := w.Estimate(sine(2048, 256, 20, 1), 256)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if psd.Freqs[0] != 0.5 || psd.Freqs[len(psd.Freqs)-1] != 100 {
		t.Fatalf("unexpected range [%v, %v]", psd.Freqs[0], psd.Freqs[len(psd.Freqs)-1])
	}
	if len(psd.Freqs) != len(psd.Power) {
		t.Fatalf("freqs/power length mismatch")
	}
}

func TestWelchInvalidConfig(t *testing.T) {
	cases := []WelchConfig{
		{NFFT: 1, FMin: 0, FMax: 10},
		{NFFT: 64, Overlap: 64, FMin: 0, FMax: 10},
		{NFFT: 64, FMin: 10, FMax: 5},
	}
	for _, c := range cases {
		if _, err := NewWelch(c); err == nil {
			t.Fatalf("expected error for %+v", c)
		}
	}
}

func TestComputeBandOrderAndShape(t *testing.T) {
	sig := &models.Signal{
		Time:       timeAxis(2560, 256),
		Channels:   []string{"a", "b"},
		Data:       [][]float64{sine(2560, 256, 10, 1), sine(2560, 256, 2, 1)},
		SampleRate: 256,
	}
	bp, err := NewAnalyzer().Compute(sig)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	labels := models.BandLabels(bp)
	want := []string{"Delta (0.5-4 Hz)", "Theta (4-8 Hz)", "Alpha (8-13 Hz)", "Beta (13-30 Hz)", "Gamma (30-100 Hz)"}
	if len(labels) != len(want) {
		t.Fatalf("got %d bands, want %d", len(labels), len(want))
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("band %d = %q, want %q", i, labels[i], want[i])
		}
		if n := len(bp.Value(want[i])); n != 2 {
			t.Fatalf("band %q has %d values, want 2", want[i], n)
		}
	}
	alpha := bp.Value("Alpha (8-13 Hz)")
	delta := bp.Value("Delta (0.5-4 Hz)")
	if alpha[0] <= delta[0] || delta[1] <= alpha[1] {
		t.Fatalf("power not concentrated in expected bands: alpha=%v delta=%v", alpha, delta)
	}
}

func TestComputePermutationInvariant(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	n := 3000
	rows := make([][]float64, 4)
	for i := range rows {
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			rows[i][j] = rng.NormFloat64() + math.Sin(2*math.Pi*float64(5*(i+1))*float64(j)/256)
		}
	}
	sig := &models.Signal{
		Time:       timeAxis(n, 256),
		Channels:   []string{"c0", "c1", "c2", "c3"},
		Data:       rows,
		SampleRate: 256,
	}
	perm := []int{2, 0, 3, 1}
	permuted := &models.Signal{Time: sig.Time, SampleRate: 256}
	for _, p := range perm {
		permuted.Channels = append(permuted.Channels, sig.Channels[p])
		permuted.Data = append(permuted.Data, sig.Data[p])
	}

	a := NewAnalyzer()
	orig, err := a.Compute(sig)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	got, err := a.Compute(permuted)
	if err != nil {
		t.Fatalf("compute permuted: %v", err)
	}
	for pair := orig.Oldest(); pair != nil; pair = pair.Next() {
		pv := got.Value(pair.Key)
		for i, p := range perm {
			if pv[i] != pair.Value[p] {
				t.Fatalf("%s: permuted[%d]=%v, original[%d]=%v", pair.Key, i, pv[i], p, pair.Value[p])
			}
		}
	}
}

func TestComputeDoesNotMutateInput(t *testing.T) {
	row := sine(1500, 256, 6, 2)
	backup := append([]float64(nil), row...)
	sig := &models.Signal{Time: timeAxis(1500, 256), Channels: []string{"x"}, Data: [][]float64{row}, SampleRate: 256}
	if _, err := NewAnalyzer().Compute(sig); err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !floats.Equal(row, backup) {
		t.Fatalf("input modified")
	}
}

func TestComputeShortSignal(t *testing.T) {
	sig := &models.Signal{
		Time:       timeAxis(5, 256),
		Channels:   []string{"ch1", "ch2"},
		Data:       [][]float64{{1, 2, 3, 2, 1}, {0, -1, 0, 1, 0}},
		SampleRate: 256,
	}
	bp, err := NewAnalyzer().Compute(sig)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for pair := bp.Oldest(); pair != nil; pair = pair.Next() {
		for _, v := range pair.Value {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("%s: invalid power %v", pair.Key, v)
			}
		}
	}
}

func TestComputeRejectsInsufficientData(t *testing.T) {
	a := NewAnalyzer()

	single := &models.Signal{Time: []float64{0}, Channels: []string{"a"}, Data: [][]float64{{1}}, SampleRate: 256}
	if _, err := a.Compute(single); !models.IsKind(err, models.KindAnalysis) {
		t.Fatalf("expected analysis error for single sample, got %v", err)
	}

	// 40 Hz sampling: nyquist 20 Hz leaves the gamma band empty
	slow := &models.Signal{
		Time:       timeAxis(400, 40),
		Channels:   []string{"a"},
		Data:       [][]float64{sine(400, 40, 3, 1)},
		SampleRate: 40,
	}
	if _, err := a.Compute(slow); !models.IsKind(err, models.KindAnalysis) {
		t.Fatalf("expected analysis error for empty band, got %v", err)
	}

	zeroRate := &models.Signal{Time: timeAxis(10, 1), Channels: []string{"a"}, Data: [][]float64{sine(10, 1, 0.1, 1)}}
	if _, err := a.Compute(zeroRate); !models.IsKind(err, models.KindAnalysis) {
		t.Fatalf("expected analysis error for zero sample rate, got %v", err)
	}
}
