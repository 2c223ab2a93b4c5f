package generator

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"NeuroBand/internal/domain/models"
)

const (
	DefaultSampleRate = 256.0 // Hz
	DefaultDuration   = 10.0  // seconds
	DefaultNoiseSigma = 0.05
)

// Component is one sinusoid of the synthetic waveform.
type Component struct {
	Frequency float64 // Hz
	Amplitude float64
}

// DefaultChannels are the midline electrodes of the 10-20 system.
var DefaultChannels = []string{"Fz", "Cz", "Pz"}

// DefaultComponents puts one tone in the middle of each canonical band.
var DefaultComponents = []Component{
	{Frequency: 2, Amplitude: 0.5},  // delta
	{Frequency: 6, Amplitude: 0.3},  // theta
	{Frequency: 10, Amplitude: 0.4}, // alpha
	{Frequency: 20, Amplitude: 0.2}, // beta
	{Frequency: 40, Amplitude: 0.1}, // gamma
}

// Option configures Synthetic.
type Option func(*Synthetic)

// Synthetic generates EEG-like signals as a sum of sinusoids plus gaussian noise.
type Synthetic struct {
	sampleRate float64
	duration   float64
	channels   []string
	components []Component
	noise      distuv.Normal
}

// New returns a generator with the fixed 10 s / 256 Hz / 3 channel layout.
func New(opts ...Option) *Synthetic {
	g := &Synthetic{
		sampleRate: DefaultSampleRate,
		duration:   DefaultDuration,
		channels:   DefaultChannels,
		components: DefaultComponents,
		noise:      distuv.Normal{Mu: 0, Sigma: DefaultNoiseSigma},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithSource makes the noise reproducible. A nil source uses the global randomized source.
func WithSource(src rand.Source) Option {
	return func(g *Synthetic) {
		g.noise.Src = src
	}
}

// WithNoiseSigma overrides the noise standard deviation.
func WithNoiseSigma(sigma float64) Option {
	return func(g *Synthetic) {
		g.noise.Sigma = sigma
	}
}

// SampleRate returns the generator's sampling rate in Hz.
func (g *Synthetic) SampleRate() float64 { return g.sampleRate }

// Generate returns a fresh signal. Each call draws new noise.
func (g *Synthetic) Generate() (*models.Signal, error) {
	n := int(math.Round(g.duration * g.sampleRate))

	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i) / g.sampleRate
	}

	// deterministic part is shared by every channel
	clean := make([]float64, n)
	for i, ti := range t {
		var v float64
		for _, c := range g.components {
			v += c.Amplitude * math.Sin(2*math.Pi*c.Frequency*ti)
		}
		clean[i] = v
	}

	channels := make([]string, len(g.channels))
	copy(channels, g.channels)

	data := make([][]float64, len(channels))
	for ch := range data {
		row := make([]float64, n)
		for i := range row {
			row[i] = clean[i] + g.noise.Rand()
		}
		data[ch] = row
	}

	return &models.Signal{
		Time:       t,
		Channels:   channels,
		Data:       data,
		SampleRate: g.sampleRate,
	}, nil
}
