package repository

import (
	"context"

	"NeuroBand/internal/domain/models"
)

// SignalStore persists the current signal. Replace is a total overwrite: after it returns
// successfully only the new signal's samples remain; on failure the previous contents are intact.
type SignalStore interface {
	Replace(ctx context.Context, s *models.Signal) error
	Current(ctx context.Context) ([]models.Sample, error)
	Health(ctx context.Context) error
	Close() error
}

// EventPublisher announces completed ingestions.
type EventPublisher interface {
	PublishIngested(ctx context.Context, evt *models.IngestedEvent) error
	Close() error
}

// ResultCache keeps the latest analysis payload for re-serving.
type ResultCache interface {
	GetResult(ctx context.Context) (*models.AnalysisResult, bool, error)
	SetResult(ctx context.Context, r *models.AnalysisResult) error
}

type Metrics interface {
	RecordIngestion(mode, outcome string)
	RecordError(kind string)
	RecordStoredSamples(n int)
	RecordLatency(op string, seconds float64)
}
