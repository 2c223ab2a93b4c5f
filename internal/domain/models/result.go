package models

import "time"

// IngestMode identifies how a signal entered the pipeline.
type IngestMode string

const (
	ModeUpload   IngestMode = "upload"
	ModeGenerate IngestMode = "generate"
	ModeLatest   IngestMode = "latest"
)

// AnalysisResult is the unified payload returned by every ingestion mode.
type AnalysisResult struct {
	Time       []float64   `json:"time"`
	Channels   []string    `json:"channels"`
	Data       [][]float64 `json:"data"`
	BandPowers *BandPowers `json:"band_powers"`
}

// Ingestion wraps a result with the metadata the transport and event layers need.
type Ingestion struct {
	ID         string
	Mode       IngestMode
	ReceivedAt time.Time
	Duration   time.Duration
	Result     *AnalysisResult
}

// IngestedEvent is published after a successful ingestion.
type IngestedEvent struct {
	ID         string      `json:"id"`
	Mode       IngestMode  `json:"mode"`
	ReceivedAt time.Time   `json:"received_at"`
	Channels   []string    `json:"channels"`
	Samples    int         `json:"samples"`
	BandPowers *BandPowers `json:"band_powers"`
}
