package models

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Band is a named frequency range [Min, Max] in Hz, both ends inclusive.
type Band struct {
	Name string  `json:"name"`
	Min  float64 `json:"fmin"`
	Max  float64 `json:"fmax"`
}

// Contains reports whether f lies within the band.
func (b Band) Contains(f float64) bool { return f >= b.Min && f <= b.Max }

var canonicalBands = [...]Band{
	{Name: "Delta (0.5-4 Hz)", Min: 0.5, Max: 4},
	{Name: "Theta (4-8 Hz)", Min: 4, Max: 8},
	{Name: "Alpha (8-13 Hz)", Min: 8, Max: 13},
	{Name: "Beta (13-30 Hz)", Min: 13, Max: 30},
	{Name: "Gamma (30-100 Hz)", Min: 30, Max: 100},
}

// CanonicalBands returns a copy of the five EEG bands in canonical order.
func CanonicalBands() []Band {
	out := make([]Band, len(canonicalBands))
	copy(out, canonicalBands[:])
	return out
}

// BandPowers maps band label to one mean power value per channel. Iteration and JSON
// encoding follow insertion order, which the analyzer keeps canonical.
type BandPowers = orderedmap.OrderedMap[string, []float64]

// NewBandPowers returns an empty BandPowers sized for the canonical bands.
func NewBandPowers() *BandPowers {
	return orderedmap.New[string, []float64](orderedmap.WithCapacity[string, []float64](len(canonicalBands)))
}

// BandLabels returns the labels of bp in iteration order.
func BandLabels(bp *BandPowers) []string {
	labels := make([]string, 0, bp.Len())
	for pair := bp.Oldest(); pair != nil; pair = pair.Next() {
		labels = append(labels, pair.Key)
	}
	return labels
}
