package matcher

import (
	"github.com/eshaffer321/orderrecon/internal/domain/record"
)

type exactKey struct {
	date   record.Date
	amount string
}

func keyOf(r record.OrderRecord) exactKey {
	return exactKey{date: r.Date, amount: r.Amount.StringFixed(record.AmountPlaces)}
}

// MatchExact pairs records sharing (date, amount). Within a key, POS and
// source records are paired first-with-first in insertion order until one
// side runs out. Results are ordered by date, then POS insertion order.
func (m *Matcher) MatchExact(pool *record.Pool) ([]Exact, error) {
	queues := make(map[exactKey][]record.Entry)
	for _, e := range pool.Remaining(record.OriginSource) {
		k := keyOf(e.Record)
		queues[k] = append(queues[k], e)
	}

	var pairs []claim
	for _, p := range pool.Remaining(record.OriginPOS) {
		k := keyOf(p.Record)
		queue := queues[k]
		if len(queue) == 0 {
			continue
		}
		s := queue[0]
		queues[k] = queue[1:]
		pairs = append(pairs, claim{
			posIdx:    []int{p.Index},
			sourceIdx: s.Index,
			match:     Exact{POS: p.Record, Source: s.Record},
		})
	}

	sortClaims(pairs)
	return apply[Exact](pool, [][]claim{pairs})
}
