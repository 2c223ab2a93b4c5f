package spectral

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"NeuroBand/internal/domain/models"
	domsvc "NeuroBand/internal/domain/service"
)

const (
	DefaultNFFT = 1024
	DefaultFMin = 0.5
	DefaultFMax = 100.0

	// MinSamples is the shortest signal accepted; a single sample has no
	// spectral content once the segment mean is removed.
	MinSamples = 2
)

// Analyzer averages Welch PSD bins into the canonical EEG bands.
type Analyzer struct {
	welch *Welch
	bands []models.Band
}

// NewAnalyzer returns an analyzer using the default estimator settings.
func NewAnalyzer() *Analyzer {
	w, err := NewWelch(WelchConfig{NFFT: DefaultNFFT, FMin: DefaultFMin, FMax: DefaultFMax})
	if err != nil {
		// defaults are constant and valid
		panic(err)
	}
	return &Analyzer{welch: w, bands: models.CanonicalBands()}
}

// Compute returns one mean power per channel for every canonical band, in canonical order.
func (a *Analyzer) Compute(s *models.Signal) (*models.BandPowers, error) {
	const op = "compute band powers"
	if s == nil || len(s.Channels) == 0 {
		return nil, models.AnalysisErrorf(op, "signal has no channels")
	}
	if s.Samples() < MinSamples {
		return nil, models.AnalysisErrorf(op, "signal has %d samples, need at least %d", s.Samples(), MinSamples)
	}

	out := models.NewBandPowers()
	for _, b := range a.bands {
		out.Set(b.Name, make([]float64, len(s.Channels)))
	}

	for ch, row := range s.Data {
		psd, err := a.welch.Estimate(row, s.SampleRate)
		if err != nil {
			return nil, models.AnalysisError(op, err)
		}
		for _, b := range a.bands {
			p, ok := bandMean(psd, b)
			if !ok {
				return nil, models.AnalysisErrorf(op,
					"no frequency bins in %s at %g Hz sampling (resolution %g Hz, nyquist %g Hz)",
					b.Name, s.SampleRate, s.SampleRate/float64(DefaultNFFT), s.SampleRate/2)
			}
			if math.IsNaN(p) || math.IsInf(p, 0) {
				return nil, models.AnalysisErrorf(op, "non-finite power in %s for channel %q", b.Name, s.Channels[ch])
			}
			out.Value(b.Name)[ch] = p
		}
	}
	return out, nil
}

func bandMean(psd PSD, b models.Band) (float64, bool) {
	var sel []float64
	for i, f := range psd.Freqs {
		if b.Contains(f) {
			sel = append(sel, psd.Power[i])
		}
	}
	if len(sel) == 0 {
		return 0, false
	}
	return stat.Mean(sel, nil), true
}

var _ domsvc.SpectralAnalyzer = (*Analyzer)(nil)
