package models

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Signal is a multichannel voltage recording. Data is indexed by channel, then by sample.
type Signal struct {
	Time       []float64   `json:"time" validate:"required,min=1"`
	Channels   []string    `json:"channels" validate:"required,min=1,unique,dive,required"`
	Data       [][]float64 `json:"data" validate:"required,min=1"`
	SampleRate float64     `json:"-" validate:"gt=0"`
}

// Sample is one persisted (time, channel, voltage) tuple.
type Sample struct {
	Time    float64
	Channel string
	Voltage float64
}

// Samples returns the number of samples per channel.
func (s *Signal) Samples() int { return len(s.Time) }

// Validate checks the shape invariants: one data row per channel, each row as long as Time,
// unique channel names and finite values everywhere.
func (s *Signal) Validate() error {
	if s == nil {
		return fmt.Errorf("signal is nil")
	}
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid signal: %w", err)
	}
	if len(s.Data) != len(s.Channels) {
		return fmt.Errorf("invalid signal: %d data rows for %d channels", len(s.Data), len(s.Channels))
	}
	for i, row := range s.Data {
		if len(row) != len(s.Time) {
			return fmt.Errorf("invalid signal: channel %q has %d samples, want %d", s.Channels[i], len(row), len(s.Time))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("invalid signal: channel %q sample %d is not finite", s.Channels[i], j)
			}
		}
	}
	for i, t := range s.Time {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("invalid signal: time %d is not finite", i)
		}
	}
	return nil
}

// Flatten expands the signal into time-major (time, channel, voltage) tuples.
func (s *Signal) Flatten() []Sample {
	out := make([]Sample, 0, len(s.Time)*len(s.Channels))
	for i, t := range s.Time {
		for j, ch := range s.Channels {
			out = append(out, Sample{Time: t, Channel: ch, Voltage: s.Data[j][i]})
		}
	}
	return out
}

// SignalFromSamples rebuilds a signal from time-major tuples as written by Flatten.
// Channel order follows first appearance.
func SignalFromSamples(samples []Sample, sampleRate float64) (*Signal, error) {
	if len(samples) == 0 {
		return nil, ErrNoSignal
	}
	index := make(map[string]int)
	var channels []string
	for _, smp := range samples {
		if _, ok := index[smp.Channel]; ok {
			break
		}
		index[smp.Channel] = len(channels)
		channels = append(channels, smp.Channel)
	}
	if len(samples)%len(channels) != 0 {
		return nil, fmt.Errorf("stored samples: %d rows do not divide into %d channels", len(samples), len(channels))
	}

	n := len(samples) / len(channels)
	sig := &Signal{
		Time:       make([]float64, 0, n),
		Channels:   channels,
		Data:       make([][]float64, len(channels)),
		SampleRate: sampleRate,
	}
	for i := range sig.Data {
		sig.Data[i] = make([]float64, 0, n)
	}
	for i, smp := range samples {
		want := channels[i%len(channels)]
		if smp.Channel != want {
			return nil, fmt.Errorf("stored samples: row %d has channel %q, want %q", i, smp.Channel, want)
		}
		if i%len(channels) == 0 {
			sig.Time = append(sig.Time, smp.Time)
		}
		sig.Data[index[smp.Channel]] = append(sig.Data[index[smp.Channel]], smp.Voltage)
	}
	return sig, nil
}
