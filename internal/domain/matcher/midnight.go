package matcher

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/orderrecon/internal/domain/record"
)

// midnightOffsets are the day offsets from a POS date that are searched, in
// preference order. Records two or more days apart never match.
var midnightOffsets = []int{1, -1}

// MatchMidnight pairs remaining records whose dates differ by exactly one
// day. POS records are taken in (date, insertion) order, twice: the first
// pass only accepts an identical amount on an adjacent day, the second the
// smallest difference within tolerance. Ties prefer the following day, then
// the earlier source record.
//
// Runs sequentially; neighbouring dates compete for the same source records.
func (m *Matcher) MatchMidnight(ctx context.Context, pool *record.Pool) ([]Midnight, error) {
	var out []Midnight
	for _, pick := range []func(*record.Pool, map[record.Date][]record.Entry, record.OrderRecord) (record.Entry, bool){
		exactAdjacent,
		m.closestAdjacent,
	} {
		found, err := m.midnightPass(ctx, pool, pick)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func (m *Matcher) midnightPass(
	ctx context.Context,
	pool *record.Pool,
	pick func(*record.Pool, map[record.Date][]record.Entry, record.OrderRecord) (record.Entry, bool),
) ([]Midnight, error) {
	sources := pool.RemainingByDate(record.OriginSource)
	posByDate := pool.RemainingByDate(record.OriginPOS)

	var out []Midnight
	for _, d := range record.SortedDates(posByDate) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, p := range posByDate[d] {
			s, ok := pick(pool, sources, p.Record)
			if !ok {
				continue
			}
			if err := pool.Consume(record.OriginPOS, p.Index); err != nil {
				return nil, err
			}
			if err := pool.Consume(record.OriginSource, s.Index); err != nil {
				return nil, err
			}
			out = append(out, Midnight{
				POS:        p.Record,
				Source:     s.Record,
				Difference: s.Record.Amount.Sub(p.Record.Amount),
			})
		}
	}
	return out, nil
}

func exactAdjacent(pool *record.Pool, sources map[record.Date][]record.Entry, pos record.OrderRecord) (record.Entry, bool) {
	for _, offset := range midnightOffsets {
		for _, s := range sources[pos.Date.AddDays(offset)] {
			if !pool.IsConsumed(record.OriginSource, s.Index) && s.Record.Amount.Equal(pos.Amount) {
				return s, true
			}
		}
	}
	return record.Entry{}, false
}

func (m *Matcher) closestAdjacent(pool *record.Pool, sources map[record.Date][]record.Entry, pos record.OrderRecord) (record.Entry, bool) {
	var (
		best    record.Entry
		bestAbs decimal.Decimal
		found   bool
	)
	for _, offset := range midnightOffsets {
		for _, s := range sources[pos.Date.AddDays(offset)] {
			if pool.IsConsumed(record.OriginSource, s.Index) {
				continue
			}
			diff := s.Record.Amount.Sub(pos.Amount)
			if !m.config.Tolerance.Within(diff, s.Record.Amount) {
				continue
			}
			if !found || diff.Abs().LessThan(bestAbs) {
				best, bestAbs, found = s, diff.Abs(), true
			}
		}
	}
	return best, found
}
