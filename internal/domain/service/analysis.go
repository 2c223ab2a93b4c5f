package service

import (
	"NeuroBand/internal/domain/models"
)

// SignalGenerator produces a synthetic signal with known band composition.
type SignalGenerator interface {
	Generate() (*models.Signal, error)
}

// SpectralAnalyzer derives per-band power from a signal without mutating it.
type SpectralAnalyzer interface {
	Compute(s *models.Signal) (*models.BandPowers, error)
}
