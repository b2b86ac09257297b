package storage

import (
	"fmt"
	"sort"
	"sync"
)

// MockRepository is an in-memory implementation of Repository for testing.
type MockRepository struct {
	mu   sync.Mutex
	runs map[string]RunRecord

	// Hooks for test assertions
	SaveRunCalled bool
	LastSavedRun  *RunRecord

	// Error injection for testing error paths
	SaveRunErr  error
	GetRunErr   error
	ListRunsErr error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{runs: make(map[string]RunRecord)}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

func (m *MockRepository) SaveRun(run *RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveRunCalled = true
	if m.SaveRunErr != nil {
		return m.SaveRunErr
	}
	saved := *run
	m.LastSavedRun = &saved
	m.runs[run.ID] = saved
	return nil
}

func (m *MockRepository) GetRun(id string) (*RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetRunErr != nil {
		return nil, m.GetRunErr
	}
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return &run, nil
}

func (m *MockRepository) ListRuns(filters RunFilters) ([]RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListRunsErr != nil {
		return nil, m.ListRunsErr
	}
	runs := make([]RunRecord, 0, len(m.runs))
	for _, run := range m.runs {
		if filters.Status == "" || run.Status == filters.Status {
			runs = append(runs, run)
		}
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID < runs[j].ID
	})
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *MockRepository) Close() error {
	return nil
}
