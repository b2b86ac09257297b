package matcher

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/orderrecon/internal/domain/record"
)

type candidatePair struct {
	pos    record.Entry
	source record.Entry
	diff   decimal.Decimal
	abs    decimal.Decimal
}

// MatchProbable pairs same-day records whose amounts differ within
// tolerance. On each date, candidate pairs are taken greedily by smallest
// absolute difference; ties go to the earlier POS record, then the earlier
// source record.
func (m *Matcher) MatchProbable(ctx context.Context, pool *record.Pool) ([]Probable, error) {
	perDay, err := m.searchDays(ctx, sharedDays(pool), func(_ context.Context, day dayWork) ([]claim, error) {
		return m.probableForDay(day), nil
	})
	if err != nil {
		return nil, err
	}
	return apply[Probable](pool, perDay)
}

func (m *Matcher) probableForDay(day dayWork) []claim {
	var candidates []candidatePair
	for _, p := range day.pos {
		for _, s := range day.source {
			diff := s.Record.Amount.Sub(p.Record.Amount)
			if !m.config.Tolerance.Within(diff, s.Record.Amount) {
				continue
			}
			candidates = append(candidates, candidatePair{pos: p, source: s, diff: diff, abs: diff.Abs()})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if c := a.abs.Cmp(b.abs); c != 0 {
			return c < 0
		}
		if a.pos.Index != b.pos.Index {
			return a.pos.Index < b.pos.Index
		}
		return a.source.Index < b.source.Index
	})

	usedPOS := make(map[int]bool)
	usedSource := make(map[int]bool)
	var claims []claim
	for _, c := range candidates {
		if usedPOS[c.pos.Index] || usedSource[c.source.Index] {
			continue
		}
		usedPOS[c.pos.Index] = true
		usedSource[c.source.Index] = true
		claims = append(claims, claim{
			posIdx:    []int{c.pos.Index},
			sourceIdx: c.source.Index,
			match:     Probable{POS: c.pos.Record, Source: c.source.Record, Difference: c.diff},
		})
	}

	sortClaims(claims)
	return claims
}

// sortClaims orders claims by date, then by first POS index.
func sortClaims(claims []claim) {
	sort.SliceStable(claims, func(i, j int) bool {
		di, dj := claimDate(claims[i]), claimDate(claims[j])
		if c := di.Compare(dj); c != 0 {
			return c < 0
		}
		return claims[i].posIdx[0] < claims[j].posIdx[0]
	})
}

func claimDate(c claim) record.Date {
	switch m := c.match.(type) {
	case Exact:
		return m.POS.Date
	case Probable:
		return m.POS.Date
	case Grouped:
		return m.Source.Date
	case Midnight:
		return m.POS.Date
	default:
		return record.Date{}
	}
}
