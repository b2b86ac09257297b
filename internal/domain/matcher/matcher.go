// Package matcher implements the matching stages of a reconciliation run.
//
// Each stage works on the residue of a shared record.Pool and consumes the
// records it pairs:
//   - Exact: identical date and amount
//   - Probable: same date, amounts within tolerance
//   - Grouped: several same-day POS records summing to one source record
//   - Midnight: amounts agree, dates one calendar day apart
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	pool := record.NewPool(pos, source)
//	exact, err := m.MatchExact(pool)
//	probable, err := m.MatchProbable(ctx, pool)
package matcher

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/eshaffer321/orderrecon/internal/domain/record"
)

// Matcher runs matching stages against a pool
type Matcher struct {
	config  Config
	workers int
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config) *Matcher {
	defaults := DefaultConfig()
	if config.MaxGroupSize <= 0 {
		config.MaxGroupSize = defaults.MaxGroupSize
	}
	if config.MaxGroupCandidates < 0 {
		config.MaxGroupCandidates = 0
	}
	return &Matcher{config: config, workers: 1}
}

// WithWorkers sets how many dates the probable and grouped stages process
// concurrently. Output does not depend on the value.
func (m *Matcher) WithWorkers(n int) *Matcher {
	if n < 1 {
		n = 1
	}
	clone := *m
	clone.workers = n
	return &clone
}

// Config returns the effective configuration.
func (m *Matcher) Config() Config {
	return m.config
}

// dayWork is the slice of the pool a single date's search may look at.
type dayWork struct {
	date   record.Date
	pos    []record.Entry
	source []record.Entry
}

// claim is a match found on one date together with the pool indices it uses.
type claim struct {
	posIdx    []int
	sourceIdx int
	match     Match
}

// sharedDays lists the dates with remaining records on both sides, ascending.
func sharedDays(pool *record.Pool) []dayWork {
	pos := pool.RemainingByDate(record.OriginPOS)
	source := pool.RemainingByDate(record.OriginSource)

	var days []dayWork
	for _, d := range record.SortedDates(source) {
		if len(pos[d]) == 0 {
			continue
		}
		days = append(days, dayWork{date: d, pos: pos[d], source: source[d]})
	}
	return days
}

// searchDays runs fn for every day on up to m.workers goroutines. Each fn
// only sees its own day, so results can be merged in day order afterwards.
func (m *Matcher) searchDays(ctx context.Context, days []dayWork, fn func(context.Context, dayWork) ([]claim, error)) ([][]claim, error) {
	results := make([][]claim, len(days))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i := range days {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			claims, err := fn(gctx, days[i])
			if err != nil {
				return err
			}
			results[i] = claims
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// apply consumes the records of every claim, in day order, and returns the
// matches.
func apply[T Match](pool *record.Pool, perDay [][]claim) ([]T, error) {
	var out []T
	for _, claims := range perDay {
		for _, c := range claims {
			for _, idx := range c.posIdx {
				if err := pool.Consume(record.OriginPOS, idx); err != nil {
					return nil, err
				}
			}
			if err := pool.Consume(record.OriginSource, c.sourceIdx); err != nil {
				return nil, err
			}
			out = append(out, c.match.(T))
		}
	}
	return out, nil
}
