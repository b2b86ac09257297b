package matcher

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/orderrecon/internal/domain/record"
)

// ctxCheckInterval is how many search nodes are visited between context checks.
const ctxCheckInterval = 4096

// MatchGrouped looks for orders split across several POS tickets: for each
// remaining source record, a subset of 2..MaxGroupSize same-day POS records
// whose sum is within tolerance of it.
//
// Smaller groups win over larger ones. Within a group size the smallest
// absolute difference wins, and ties go to the subset that comes first in
// insertion order. Source records are tried in insertion order per date.
func (m *Matcher) MatchGrouped(ctx context.Context, pool *record.Pool) ([]Grouped, error) {
	perDay, err := m.searchDays(ctx, sharedDays(pool), m.groupedForDay)
	if err != nil {
		return nil, err
	}
	return apply[Grouped](pool, perDay)
}

func (m *Matcher) groupedForDay(ctx context.Context, day dayWork) ([]claim, error) {
	used := make(map[int]bool)
	var claims []claim

	for _, src := range day.source {
		allowance := m.config.Tolerance.Allowance(src.Record.Amount)
		limit := src.Record.Amount.Add(allowance)

		var candidates []record.Entry
		for _, p := range day.pos {
			if used[p.Index] || p.Record.Amount.GreaterThan(limit) {
				continue
			}
			candidates = append(candidates, p)
			if m.config.MaxGroupCandidates > 0 && len(candidates) == m.config.MaxGroupCandidates {
				break
			}
		}
		if len(candidates) < 2 {
			continue
		}

		picked, err := findGroup(ctx, candidates, src.Record.Amount, allowance, m.config.MaxGroupSize)
		if err != nil {
			return nil, err
		}
		if picked == nil {
			continue
		}

		group := make([]record.OrderRecord, len(picked))
		idx := make([]int, len(picked))
		for i, ci := range picked {
			group[i] = candidates[ci].Record
			idx[i] = candidates[ci].Index
			used[idx[i]] = true
		}
		claims = append(claims, claim{
			posIdx:    idx,
			sourceIdx: src.Index,
			match: Grouped{
				POS:        group,
				Source:     src.Record,
				Difference: src.Record.Amount.Sub(sumRecords(group)),
			},
		})
	}
	return claims, nil
}

// cents converts a two-place amount to integer cents.
func cents(d decimal.Decimal) int64 {
	return d.Shift(record.AmountPlaces).Round(0).IntPart()
}

// findGroup returns candidate positions (ascending) of the best subset, or
// nil when no subset of size 2..maxSize is within allowance of target.
func findGroup(ctx context.Context, candidates []record.Entry, target, allowance decimal.Decimal, maxSize int) ([]int, error) {
	s := &groupSearch{
		ctx:       ctx,
		amounts:   make([]int64, len(candidates)),
		target:    cents(target),
		allowance: allowance.Shift(record.AmountPlaces).Floor().IntPart(),
	}
	s.limit = s.target + s.allowance
	for i, c := range candidates {
		s.amounts[i] = cents(c.Record.Amount)
	}

	for size := 2; size <= maxSize && size <= len(candidates); size++ {
		s.size = size
		s.best = nil
		s.walk(0, 0)
		if s.err != nil {
			return nil, s.err
		}
		if s.best != nil {
			return s.best, nil
		}
	}
	return nil, nil
}

// groupSearch enumerates subsets of one size in lexicographic order of
// candidate position. Amounts are non-negative, so any prefix whose sum
// already exceeds limit is pruned.
type groupSearch struct {
	ctx       context.Context
	amounts   []int64
	target    int64
	allowance int64
	limit     int64

	size    int
	chosen  []int
	best    []int
	bestAbs int64
	visited int
	err     error
}

func (s *groupSearch) done() bool {
	return s.err != nil || (s.best != nil && s.bestAbs == 0)
}

func (s *groupSearch) walk(start int, sum int64) {
	if len(s.chosen) == s.size {
		diff := s.target - sum
		if diff < 0 {
			diff = -diff
		}
		if diff <= s.allowance && (s.best == nil || diff < s.bestAbs) {
			s.best = append([]int(nil), s.chosen...)
			s.bestAbs = diff
		}
		return
	}

	need := s.size - len(s.chosen)
	for i := start; i <= len(s.amounts)-need; i++ {
		s.visited++
		if s.visited%ctxCheckInterval == 0 {
			if err := s.ctx.Err(); err != nil {
				s.err = err
				return
			}
		}

		next := sum + s.amounts[i]
		if next > s.limit {
			continue
		}
		s.chosen = append(s.chosen, i)
		s.walk(i+1, next)
		s.chosen = s.chosen[:len(s.chosen)-1]
		if s.done() {
			return
		}
	}
}
