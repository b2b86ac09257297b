// Package reconciler runs the matching stages in priority order over one
// record pool and assembles the categorized outcome.
//
// Stage order is fixed: exact, probable, grouped, midnight. Exact pairs are
// claimed first so a looser stage cannot take them, and grouped runs before
// midnight because a same-day explanation is preferred over crossing a date
// boundary. Whatever is left afterwards is reported as unmatched.
package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/eshaffer321/orderrecon/internal/domain/matcher"
	"github.com/eshaffer321/orderrecon/internal/domain/record"
)

// Stage names used in logs and timeout errors.
const (
	StageExact    = "exact"
	StageProbable = "probable"
	StageGrouped  = "grouped"
	StageMidnight = "midnight"
)

// Config holds run configuration.
type Config struct {
	Matcher matcher.Config
	Workers int           // Dates searched concurrently (default: NumCPU)
	Timeout time.Duration // Whole-run budget, 0 = none
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Matcher: matcher.DefaultConfig(),
		Workers: runtime.NumCPU(),
	}
}

// Input is one run's worth of normalized records. Rejected rows are only
// reported; they take no part in matching.
type Input struct {
	POS      []record.OrderRecord
	Source   []record.OrderRecord
	Rejected []*record.MalformedRecordError
}

// Reconciler runs reconciliations. It holds no per-run state and is safe
// for concurrent use.
type Reconciler struct {
	config  Config
	matcher *matcher.Matcher
	logger  *slog.Logger
}

// New creates a reconciler.
func New(cfg Config, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Reconciler{
		config:  cfg,
		matcher: matcher.NewMatcher(cfg.Matcher).WithWorkers(cfg.Workers),
		logger:  logger,
	}
}

// Config returns the effective configuration.
func (r *Reconciler) Config() Config {
	return r.config
}

// Run reconciles in.POS against in.Source.
//
// If the configured timeout or ctx expires first, Run returns a
// *RunTimeoutError and no outcome.
func (r *Reconciler) Run(ctx context.Context, in Input) (*Outcome, error) {
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	pool := record.NewPool(in.POS, in.Source)
	var matches []matcher.Match

	stages := []struct {
		name string
		run  func() (int, error)
	}{
		{StageExact, func() (int, error) {
			found, err := r.matcher.MatchExact(pool)
			matches = appendMatches(matches, found)
			return len(found), err
		}},
		{StageProbable, func() (int, error) {
			found, err := r.matcher.MatchProbable(ctx, pool)
			matches = appendMatches(matches, found)
			return len(found), err
		}},
		{StageGrouped, func() (int, error) {
			found, err := r.matcher.MatchGrouped(ctx, pool)
			matches = appendMatches(matches, found)
			return len(found), err
		}},
		{StageMidnight, func() (int, error) {
			found, err := r.matcher.MatchMidnight(ctx, pool)
			matches = appendMatches(matches, found)
			return len(found), err
		}},
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, r.stopped(stage.name, in, pool, matches, err)
		}
		n, err := stage.run()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, r.stopped(stage.name, in, pool, matches, err)
			}
			return nil, err
		}
		r.logger.Debug("stage complete",
			slog.String("stage", stage.name),
			slog.Int("matches", n),
			slog.Int("pos_remaining", pool.Len(record.OriginPOS)),
			slog.Int("source_remaining", pool.Len(record.OriginSource)),
		)
	}

	matches = drain(pool, matches)
	if err := verifyPartition(in, matches); err != nil {
		return nil, err
	}

	out, err := assemble(in, matches)
	if err != nil {
		return nil, err
	}

	r.logger.Info("reconciliation complete",
		slog.Int("pos_records", len(in.POS)),
		slog.Int("source_records", len(in.Source)),
		slog.Int("exact", len(out.MatchedValues)),
		slog.Int("probable", len(out.ProbableMatches)),
		slog.Int("grouped", len(out.CombinedProbableMatches)),
		slog.Int("midnight", len(out.MidnightMatches)),
		slog.Int("unmatched_pos", len(out.UnmatchedInPos)),
		slog.Int("unmatched_source", len(out.UnmatchedInSource)),
		slog.Int("malformed", len(in.Rejected)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return out, nil
}

// stopped builds the timeout error, carrying a partial outcome in which
// everything not yet matched is listed as unmatched.
func (r *Reconciler) stopped(stage string, in Input, pool *record.Pool, matches []matcher.Match, cause error) error {
	r.logger.Warn("reconciliation stopped",
		slog.String("stage", stage),
		slog.Any("error", cause),
	)
	timeoutErr := &RunTimeoutError{Stage: stage, Cause: cause}
	if partial, err := assemble(in, drain(pool, matches)); err == nil {
		timeoutErr.Partial = partial
	}
	return timeoutErr
}

// drain moves every remaining record into an Unmatched result.
func drain(pool *record.Pool, matches []matcher.Match) []matcher.Match {
	for _, origin := range []record.Origin{record.OriginPOS, record.OriginSource} {
		for _, e := range pool.Remaining(origin) {
			matches = append(matches, matcher.Unmatched{Record: e.Record})
		}
	}
	return matches
}

func appendMatches[T matcher.Match](matches []matcher.Match, found []T) []matcher.Match {
	for _, m := range found {
		matches = append(matches, m)
	}
	return matches
}
