package record

import (
	"fmt"
	"sort"
)

// Entry is a record together with its insertion index on its side of the pool.
type Entry struct {
	Index  int
	Record OrderRecord
}

// Pool is the per-run working set. Records are only ever removed, and each
// side keeps its insertion order for deterministic tie-breaks.
type Pool struct {
	pos    side
	source side
}

type side struct {
	records  []OrderRecord
	consumed []bool
	left     int
}

func newSide(input []OrderRecord) side {
	records := make([]OrderRecord, len(input))
	for i, rec := range input {
		rec.Seq = i
		records[i] = rec
	}
	return side{
		records:  records,
		consumed: make([]bool, len(records)),
		left:     len(records),
	}
}

// NewPool creates a pool over copies of the two input slices. Each copy's
// Seq is its index on its side.
func NewPool(pos, source []OrderRecord) *Pool {
	return &Pool{
		pos:    newSide(pos),
		source: newSide(source),
	}
}

func (p *Pool) sideOf(origin Origin) *side {
	if origin == OriginPOS {
		return &p.pos
	}
	return &p.source
}

// Len returns the number of records still remaining on one side.
func (p *Pool) Len(origin Origin) int {
	return p.sideOf(origin).left
}

// Remaining returns the unconsumed entries of one side in insertion order.
func (p *Pool) Remaining(origin Origin) []Entry {
	s := p.sideOf(origin)
	out := make([]Entry, 0, s.left)
	for i, rec := range s.records {
		if !s.consumed[i] {
			out = append(out, Entry{Index: i, Record: rec})
		}
	}
	return out
}

// RemainingByDate groups the unconsumed entries of one side by date. Each
// group keeps insertion order.
func (p *Pool) RemainingByDate(origin Origin) map[Date][]Entry {
	out := make(map[Date][]Entry)
	for _, e := range p.Remaining(origin) {
		out[e.Record.Date] = append(out[e.Record.Date], e)
	}
	return out
}

// IsConsumed reports whether the entry at index has been taken.
func (p *Pool) IsConsumed(origin Origin, index int) bool {
	return p.sideOf(origin).consumed[index]
}

// Consume removes one record from its side. Consuming the same record twice
// means a matcher paired it twice, which is always a bug.
func (p *Pool) Consume(origin Origin, index int) error {
	s := p.sideOf(origin)
	if index < 0 || index >= len(s.records) {
		return fmt.Errorf("consume %s record %d: index out of range", origin, index)
	}
	if s.consumed[index] {
		return fmt.Errorf("consume %s record %d: already consumed", origin, index)
	}
	s.consumed[index] = true
	s.left--
	return nil
}

// SortedDates returns the keys of a by-date grouping in ascending order.
func SortedDates(groups map[Date][]Entry) []Date {
	dates := make([]Date, 0, len(groups))
	for d := range groups {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
