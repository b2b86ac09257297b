package dto

import (
	"time"

	"github.com/eshaffer321/orderrecon/internal/adapters/platforms"
	"github.com/eshaffer321/orderrecon/internal/domain/reconciler"
	"github.com/eshaffer321/orderrecon/internal/infrastructure/storage"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a healthy response stamped with the current time.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ReconcileResponse is the outcome with its run ID alongside the bucket fields.
type ReconcileResponse struct {
	RunID string `json:"runId"`
	*reconciler.Outcome
}

// PlatformResponse describes one supported export type.
type PlatformResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// PlatformListResponse groups platforms by side.
type PlatformListResponse struct {
	POS    []PlatformResponse `json:"pos"`
	Source []PlatformResponse `json:"source"`
}

// ToPlatformResponses converts profiles for the API.
func ToPlatformResponses(profiles []platforms.Profile) []PlatformResponse {
	out := make([]PlatformResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, PlatformResponse{Name: p.Name, DisplayName: p.DisplayName})
	}
	return out
}

// RunResponse is a stored run summary.
type RunResponse struct {
	ID          string   `json:"id"`
	POSType     string   `json:"pos_type"`
	SourceType  string   `json:"source_type"`
	POSFile     string   `json:"pos_file"`
	SourceFiles []string `json:"source_files"`
	StartedAt   string   `json:"started_at"`
	CompletedAt string   `json:"completed_at,omitempty"`
	DurationMs  int64    `json:"duration_ms"`
	Status      string   `json:"status"`
	Error       string   `json:"error,omitempty"`

	TotalPOS        int `json:"total_pos_records"`
	TotalSource     int `json:"total_source_records"`
	Exact           int `json:"exact"`
	Probable        int `json:"probable"`
	Grouped         int `json:"grouped"`
	Midnight        int `json:"midnight"`
	UnmatchedPOS    int `json:"unmatched_pos"`
	UnmatchedSource int `json:"unmatched_source"`
	Malformed       int `json:"malformed"`
}

// RunListResponse is a list of run summaries.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// ToRunResponse converts a stored run for the API.
func ToRunResponse(r *storage.RunRecord) RunResponse {
	resp := RunResponse{
		ID:              r.ID,
		POSType:         r.POSType,
		SourceType:      r.SourceType,
		POSFile:         r.POSFile,
		SourceFiles:     r.SourceFiles,
		StartedAt:       r.StartedAt.Format(time.RFC3339),
		DurationMs:      r.Duration().Milliseconds(),
		Status:          r.Status,
		Error:           r.Error,
		TotalPOS:        r.TotalPOS,
		TotalSource:     r.TotalSource,
		Exact:           r.Exact,
		Probable:        r.Probable,
		Grouped:         r.Grouped,
		Midnight:        r.Midnight,
		UnmatchedPOS:    r.UnmatchedPOS,
		UnmatchedSource: r.UnmatchedSource,
		Malformed:       r.Malformed,
	}
	if !r.CompletedAt.IsZero() {
		resp.CompletedAt = r.CompletedAt.Format(time.RFC3339)
	}
	if resp.SourceFiles == nil {
		resp.SourceFiles = []string{}
	}
	return resp
}
