package models

// LatestRequest is the query of GET /api/eeg/latest.
type LatestRequest struct {
	Refresh bool `query:"refresh" default:"false"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}
