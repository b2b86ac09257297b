package matcher

import (
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/orderrecon/internal/domain/record"
)

// Config holds matcher configuration
type Config struct {
	Tolerance          Tolerance
	MaxGroupSize       int // Largest POS group tried by the grouped stage (default: 5)
	MaxGroupCandidates int // Caps same-day POS records the grouped stage searches over (0 = no cap)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Tolerance:    DefaultTolerance(),
		MaxGroupSize: 5,
	}
}

// Tolerance decides how far apart two amounts may be and still match.
// The allowance is the smaller of Absolute and Percent% of the source
// amount. A component that is zero or negative is unset; with both unset
// only identical amounts match.
type Tolerance struct {
	Absolute decimal.Decimal
	Percent  decimal.Decimal
}

// DefaultTolerance is 5% capped at 10 currency units.
func DefaultTolerance() Tolerance {
	return Tolerance{
		Absolute: decimal.NewFromInt(10),
		Percent:  decimal.NewFromInt(5),
	}
}

var hundred = decimal.NewFromInt(100)

// Allowance returns the largest accepted |difference| against base.
func (t Tolerance) Allowance(base decimal.Decimal) decimal.Decimal {
	hasAbs := t.Absolute.IsPositive()
	hasPct := t.Percent.IsPositive()

	var pct decimal.Decimal
	if hasPct {
		pct = base.Abs().Mul(t.Percent).Div(hundred)
	}

	switch {
	case hasAbs && hasPct:
		return decimal.Min(t.Absolute, pct)
	case hasAbs:
		return t.Absolute
	case hasPct:
		return pct
	default:
		return decimal.Zero
	}
}

// Within reports whether |difference| is at most the allowance for base.
func (t Tolerance) Within(difference, base decimal.Decimal) bool {
	return difference.Abs().LessThanOrEqual(t.Allowance(base))
}

// Kind names a match variant.
type Kind string

const (
	KindExact     Kind = "exact"
	KindProbable  Kind = "probable"
	KindGrouped   Kind = "grouped"
	KindMidnight  Kind = "midnight"
	KindUnmatched Kind = "unmatched"
)

// Match is one classified outcome. The set of implementations is closed:
// Exact, Probable, Grouped, Midnight and Unmatched.
type Match interface {
	Kind() Kind
	// Records returns every input record this match accounts for.
	Records() []record.OrderRecord
	isMatch()
}

// Exact pairs two records with identical date and amount.
type Exact struct {
	POS    record.OrderRecord
	Source record.OrderRecord
}

func (Exact) Kind() Kind { return KindExact }
func (m Exact) Records() []record.OrderRecord {
	return []record.OrderRecord{m.POS, m.Source}
}
func (Exact) isMatch() {}

// Date is the shared date of both records.
func (m Exact) Date() record.Date { return m.POS.Date }

// Amount is the shared amount of both records.
func (m Exact) Amount() decimal.Decimal { return m.POS.Amount }

// Probable pairs two same-day records whose amounts differ within tolerance.
type Probable struct {
	POS        record.OrderRecord
	Source     record.OrderRecord
	Difference decimal.Decimal // source - pos
}

func (Probable) Kind() Kind { return KindProbable }
func (m Probable) Records() []record.OrderRecord {
	return []record.OrderRecord{m.POS, m.Source}
}
func (Probable) isMatch() {}

// Grouped explains one source record with several same-day POS records.
type Grouped struct {
	POS        []record.OrderRecord // original relative order
	Source     record.OrderRecord
	Difference decimal.Decimal // source - sum(pos)
}

func (Grouped) Kind() Kind { return KindGrouped }
func (m Grouped) Records() []record.OrderRecord {
	out := make([]record.OrderRecord, 0, len(m.POS)+1)
	out = append(out, m.POS...)
	return append(out, m.Source)
}
func (Grouped) isMatch() {}

// Sum is the total of the grouped POS amounts.
func (m Grouped) Sum() decimal.Decimal {
	return sumRecords(m.POS)
}

// Midnight pairs records one calendar day apart.
type Midnight struct {
	POS        record.OrderRecord
	Source     record.OrderRecord
	Difference decimal.Decimal // source - pos
}

func (Midnight) Kind() Kind { return KindMidnight }
func (m Midnight) Records() []record.OrderRecord {
	return []record.OrderRecord{m.POS, m.Source}
}
func (Midnight) isMatch() {}

// Unmatched is a record no stage could pair.
type Unmatched struct {
	Record record.OrderRecord
}

func (Unmatched) Kind() Kind { return KindUnmatched }
func (m Unmatched) Records() []record.OrderRecord {
	return []record.OrderRecord{m.Record}
}
func (Unmatched) isMatch() {}

func sumRecords(records []record.OrderRecord) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(r.Amount)
	}
	return sum
}
