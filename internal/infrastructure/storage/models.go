package storage

import "time"

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusTimeout   = "timeout"
	StatusFailed    = "failed"
)

// RunRecord is the stored summary of one reconciliation run. Outcomes
// themselves are not persisted.
type RunRecord struct {
	ID          string    `json:"id"`
	POSType     string    `json:"pos_type"`
	SourceType  string    `json:"source_type"`
	POSFile     string    `json:"pos_file"`
	SourceFiles []string  `json:"source_files"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`

	TotalPOS        int `json:"total_pos_records"`
	TotalSource     int `json:"total_source_records"`
	Exact           int `json:"exact"`
	Probable        int `json:"probable"`
	Grouped         int `json:"grouped"`
	Midnight        int `json:"midnight"`
	UnmatchedPOS    int `json:"unmatched_pos"`
	UnmatchedSource int `json:"unmatched_source"`
	Malformed       int `json:"malformed"`

	// SourceFilesJSON is the DB column backing SourceFiles
	SourceFilesJSON string `json:"-"`
}

// Duration is the wall time the run took.
func (r *RunRecord) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
