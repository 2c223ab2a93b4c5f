package spectral

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

// PSD is a one-sided power spectral density estimate.
type PSD struct {
	Freqs []float64 // Hz
	Power []float64 // V²/Hz
}

// WelchConfig holds the estimator parameters.
type WelchConfig struct {
	NFFT    int     // FFT length; segments shorter than this are zero-padded
	Overlap int     // samples shared by consecutive segments
	FMin    float64 // lowest frequency kept
	FMax    float64 // highest frequency kept
}

// Welch estimates PSD by averaging Hamming-windowed, mean-detrended periodograms.
// It is safe for concurrent use.
type Welch struct {
	cfg   WelchConfig
	plans sync.Pool
}

// NewWelch returns an estimator for cfg.
func NewWelch(cfg WelchConfig) (*Welch, error) {
	if cfg.NFFT < 2 {
		return nil, fmt.Errorf("welch: nfft must be at least 2, got %d", cfg.NFFT)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.NFFT {
		return nil, fmt.Errorf("welch: overlap %d out of range [0, %d)", cfg.Overlap, cfg.NFFT)
	}
	if cfg.FMin < 0 || cfg.FMax <= cfg.FMin {
		return nil, fmt.Errorf("welch: invalid frequency range [%g, %g]", cfg.FMin, cfg.FMax)
	}
	w := &Welch{cfg: cfg}
	// fourier.FFT keeps scratch state, so each goroutine borrows its own plan
	w.plans.New = func() any { return fourier.NewFFT(cfg.NFFT) }
	return w, nil
}

// Estimate computes the PSD of x sampled at fs Hz. x is not modified.
func (w *Welch) Estimate(x []float64, fs float64) (PSD, error) {
	if len(x) < 2 {
		return PSD{}, fmt.Errorf("welch: need at least 2 samples, got %d", len(x))
	}
	if fs <= 0 || math.IsNaN(fs) || math.IsInf(fs, 0) {
		return PSD{}, fmt.Errorf("welch: invalid sample rate %g", fs)
	}

	nfft := w.cfg.NFFT
	nperseg := min(nfft, len(x))
	noverlap := min(w.cfg.Overlap, nperseg-1)
	step := nperseg - noverlap

	win := make([]float64, nperseg)
	for i := range win {
		win[i] = 1
	}
	window.Hamming(win)
	scale := 1 / (fs * floats.Dot(win, win))

	nbins := nfft/2 + 1
	acc := make([]float64, nbins)
	seg := make([]float64, nfft)
	coeffs := make([]complex128, nbins)

	plan := w.plans.Get().(*fourier.FFT)
	defer w.plans.Put(plan)

	segments := 0
	for start := 0; start+nperseg <= len(x); start += step {
		chunk := x[start : start+nperseg]
		mean := floats.Sum(chunk) / float64(nperseg)
		for i, v := range chunk {
			seg[i] = (v - mean) * win[i]
		}
		for i := nperseg; i < nfft; i++ {
			seg[i] = 0
		}
		plan.Coefficients(coeffs, seg)
		for k, c := range coeffs {
			re, im := real(c), imag(c)
			acc[k] += re*re + im*im
		}
		segments++
	}

	for k := range acc {
		p := acc[k] * scale / float64(segments)
		// fold negative frequencies into the one-sided estimate
		if k != 0 && !(nfft%2 == 0 && k == nbins-1) {
			p *= 2
		}
		acc[k] = p
	}

	out := PSD{}
	for k, p := range acc {
		f := float64(k) * fs / float64(nfft)
		if f < w.cfg.FMin || f > w.cfg.FMax {
			continue
		}
		out.Freqs = append(out.Freqs, f)
		out.Power = append(out.Power, p)
	}
	return out, nil
}
