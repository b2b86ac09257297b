// Package service runs reconciliations end to end: reading uploaded
// exports, mapping and normalizing rows, running the engine, and recording
// the run.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/orderrecon/internal/adapters/platforms"
	"github.com/eshaffer321/orderrecon/internal/adapters/sheets"
	"github.com/eshaffer321/orderrecon/internal/domain/reconciler"
	"github.com/eshaffer321/orderrecon/internal/domain/record"
	"github.com/eshaffer321/orderrecon/internal/infrastructure/cache"
	"github.com/eshaffer321/orderrecon/internal/infrastructure/storage"
)

var (
	// ErrInvalidRequest covers missing files or platform types.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrOutcomeNotFound is returned when an outcome has expired or never existed.
	ErrOutcomeNotFound = errors.New("outcome not found")
)

// File is one uploaded export.
type File struct {
	Name   string
	Reader io.Reader
}

// Request holds parameters for one reconciliation.
type Request struct {
	POSType    string
	SourceType string
	POS        File
	Sources    []File // concatenated in order
}

// Result is a finished reconciliation.
type Result struct {
	RunID   string
	Outcome *reconciler.Outcome
	Run     *storage.RunRecord
}

// ReconcileService manages reconciliation runs.
type ReconcileService struct {
	engine    *reconciler.Reconciler
	platforms *platforms.Registry
	storage   storage.Repository
	outcomes  *cache.OutcomeCache
	logger    *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewReconcileService creates a service. store and outcomes may be nil, in
// which case runs are not recorded or not cached.
func NewReconcileService(
	engine *reconciler.Reconciler,
	registry *platforms.Registry,
	store storage.Repository,
	outcomes *cache.OutcomeCache,
	logger *slog.Logger,
) *ReconcileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileService{
		engine:    engine,
		platforms: registry,
		storage:   store,
		outcomes:  outcomes,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Platforms lists the registered profiles for side; an empty side lists all.
func (s *ReconcileService) Platforms(side record.Origin) []platforms.Profile {
	return s.platforms.List(side)
}

// Reconcile reads the request's files and runs one reconciliation.
//
// Platform types are checked before any file is read. A timed-out run is
// still recorded, and the *reconciler.RunTimeoutError is returned.
func (s *ReconcileService) Reconcile(ctx context.Context, req Request) (*Result, error) {
	posProfile, sourceProfile, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	run := &storage.RunRecord{
		ID:         s.newID(),
		POSType:    posProfile.Name,
		SourceType: sourceProfile.Name,
		POSFile:    req.POS.Name,
		StartedAt:  s.now(),
	}
	for _, f := range req.Sources {
		run.SourceFiles = append(run.SourceFiles, f.Name)
	}

	logger := s.logger.With(slog.String("run_id", run.ID))
	logger.Info("starting reconciliation",
		slog.String("pos_type", run.POSType),
		slog.String("source_type", run.SourceType),
		slog.Int("source_files", len(req.Sources)),
	)

	input, err := s.load(posProfile, sourceProfile, req)
	if err != nil {
		s.finish(run, nil, err)
		return nil, err
	}

	out, err := s.engine.Run(ctx, input)
	if err != nil {
		var timeout *reconciler.RunTimeoutError
		if errors.As(err, &timeout) {
			s.finish(run, timeout.Partial, err)
		} else {
			s.finish(run, nil, err)
		}
		return nil, fmt.Errorf("run %s: %w", run.ID, err)
	}

	s.finish(run, out, nil)
	if s.outcomes != nil {
		s.outcomes.Put(run.ID, out)
	}

	logger.Info("reconciliation recorded",
		slog.Int("match_count", out.MatchCount),
		slog.Duration("elapsed", run.Duration()),
	)
	return &Result{RunID: run.ID, Outcome: out, Run: run}, nil
}

func (s *ReconcileService) validate(req Request) (platforms.Profile, platforms.Profile, error) {
	if req.POSType == "" || req.SourceType == "" {
		return platforms.Profile{}, platforms.Profile{}, fmt.Errorf("%w: posType and sourceType are required", ErrInvalidRequest)
	}
	posProfile, err := s.platforms.For(record.OriginPOS, req.POSType)
	if err != nil {
		return platforms.Profile{}, platforms.Profile{}, err
	}
	sourceProfile, err := s.platforms.For(record.OriginSource, req.SourceType)
	if err != nil {
		return platforms.Profile{}, platforms.Profile{}, err
	}
	if req.POS.Reader == nil {
		return platforms.Profile{}, platforms.Profile{}, fmt.Errorf("%w: a POS file is required", ErrInvalidRequest)
	}
	if len(req.Sources) == 0 {
		return platforms.Profile{}, platforms.Profile{}, fmt.Errorf("%w: at least one source file is required", ErrInvalidRequest)
	}
	return posProfile, sourceProfile, nil
}

// load turns the uploaded files into engine input.
func (s *ReconcileService) load(posProfile, sourceProfile platforms.Profile, req Request) (reconciler.Input, error) {
	posRows, err := readRows(posProfile, req.POS)
	if err != nil {
		return reconciler.Input{}, err
	}

	var sourceRows []record.RawRow
	for _, f := range req.Sources {
		rows, err := readRows(sourceProfile, f)
		if err != nil {
			return reconciler.Input{}, err
		}
		sourceRows = append(sourceRows, rows...)
	}

	posRecords, posRejected := record.NormalizeAll(record.OriginPOS, posRows)
	sourceRecords, sourceRejected := record.NormalizeAll(record.OriginSource, sourceRows)

	rejected := make([]*record.MalformedRecordError, 0, len(posRejected)+len(sourceRejected))
	rejected = append(rejected, posRejected...)
	rejected = append(rejected, sourceRejected...)
	for _, r := range rejected {
		s.logger.Debug("skipping malformed row",
			slog.String("origin", string(r.Origin)),
			slog.Int("line", r.Line),
			slog.String("field", r.Field),
			slog.String("reason", r.Reason),
		)
	}

	return reconciler.Input{
		POS:      posRecords,
		Source:   sourceRecords,
		Rejected: rejected,
	}, nil
}

func readRows(profile platforms.Profile, f File) ([]record.RawRow, error) {
	rows, err := sheets.Read(f.Name, f.Reader)
	if err != nil {
		return nil, fmt.Errorf("%s file %s: %w", profile.DisplayName, f.Name, err)
	}
	mapped, err := profile.Map(rows)
	if err != nil {
		return nil, fmt.Errorf("%s file %s: %w", profile.DisplayName, f.Name, err)
	}
	return mapped, nil
}

// finish fills in the run summary and saves it. Storage failures are logged,
// never returned: the caller already has its outcome.
func (s *ReconcileService) finish(run *storage.RunRecord, out *reconciler.Outcome, runErr error) {
	run.CompletedAt = s.now()
	switch {
	case runErr == nil:
		run.Status = storage.StatusCompleted
	case errors.Is(runErr, reconciler.ErrRunTimeout):
		run.Status = storage.StatusTimeout
		run.Error = runErr.Error()
	default:
		run.Status = storage.StatusFailed
		run.Error = runErr.Error()
	}
	if out != nil {
		run.TotalPOS = out.TotalPOSRecords
		run.TotalSource = out.TotalSourceRecords
		run.Exact = len(out.MatchedValues)
		run.Probable = len(out.ProbableMatches)
		run.Grouped = len(out.CombinedProbableMatches)
		run.Midnight = len(out.MidnightMatches)
		run.UnmatchedPOS = len(out.UnmatchedInPos)
		run.UnmatchedSource = len(out.UnmatchedInSource)
		run.Malformed = out.Diagnostics.MalformedPOS + out.Diagnostics.MalformedSource
	}

	if s.storage == nil {
		return
	}
	if err := s.storage.SaveRun(run); err != nil {
		s.logger.Error("failed to save run",
			slog.String("run_id", run.ID),
			slog.String("error", err.Error()),
		)
	}
}

// GetRun returns a recorded run summary.
func (s *ReconcileService) GetRun(id string) (*storage.RunRecord, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrRunNotFound, id)
	}
	return s.storage.GetRun(id)
}

// ListRuns returns recent run summaries, newest first.
func (s *ReconcileService) ListRuns(limit int) ([]storage.RunRecord, error) {
	if s.storage == nil {
		return []storage.RunRecord{}, nil
	}
	return s.storage.ListRuns(storage.RunFilters{Limit: limit})
}

// Outcome returns a cached outcome by run ID.
func (s *ReconcileService) Outcome(runID string) (*reconciler.Outcome, error) {
	if s.outcomes != nil {
		if out, ok := s.outcomes.Get(runID); ok {
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrOutcomeNotFound, runID)
}
