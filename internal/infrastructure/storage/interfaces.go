package storage

import "errors"

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Repository defines the run history storage interface.
// This interface allows swapping implementations and makes testing with
// mocks straightforward.
type Repository interface {
	RunRepository
	Close() error
}

// RunRepository handles reconciliation run history
type RunRepository interface {
	// SaveRun inserts or replaces a run summary
	SaveRun(run *RunRecord) error

	// GetRun retrieves a run by ID, or ErrRunNotFound
	GetRun(id string) (*RunRecord, error)

	// ListRuns returns the most recent runs first
	ListRuns(filters RunFilters) ([]RunRecord, error)
}

// RunFilters defines filters for listing runs
type RunFilters struct {
	Status string // Filter by status (empty = all)
	Limit  int    // Max results (0 = default 50)
}
