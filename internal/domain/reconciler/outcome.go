package reconciler

import (
	"fmt"
	"sort"

	"github.com/eshaffer321/orderrecon/internal/domain/matcher"
	"github.com/eshaffer321/orderrecon/internal/domain/record"
)

// MatchedValue is an exact pair or an unmatched record.
type MatchedValue struct {
	Amount record.Money `json:"amount"`
	Date   record.Date  `json:"date"`
}

// ProbableMatch is a same-day pair within tolerance.
type ProbableMatch struct {
	PosValue    record.Money `json:"posValue"`
	SourceValue record.Money `json:"sourceValue"`
	Date        record.Date  `json:"date"`
	Difference  record.Money `json:"difference"`
}

// CombinedProbableMatch is several POS records explaining one source record.
type CombinedProbableMatch struct {
	PosValues   []record.Money `json:"posValues"`
	SourceValue record.Money   `json:"sourceValue"`
	Date        record.Date    `json:"date"`
	Difference  record.Money   `json:"difference"`
}

// MidnightMatch is a pair one calendar day apart.
type MidnightMatch struct {
	PosValue    record.Money `json:"posValue"`
	PosDate     record.Date  `json:"posDate"`
	SourceValue record.Money `json:"sourceValue"`
	SourceDate  record.Date  `json:"sourceDate"`
	Difference  record.Money `json:"difference"`
}

// Diagnostics lists input rows that never reached the matcher.
type Diagnostics struct {
	MalformedPOS    int                           `json:"malformedPOS"`
	MalformedSource int                           `json:"malformedSource"`
	Issues          []*record.MalformedRecordError `json:"issues"`
}

// Outcome is the categorized result of one run. Every normalized input
// record is accounted for by exactly one entry across the buckets.
type Outcome struct {
	MatchedValues           []MatchedValue          `json:"matchedValues"`
	UnmatchedInPos          []MatchedValue          `json:"unmatchedInPos"`
	UnmatchedInSource       []MatchedValue          `json:"unmatchedInSource"`
	ProbableMatches         []ProbableMatch         `json:"probableMatches"`
	CombinedProbableMatches []CombinedProbableMatch `json:"combinedProbableMatches"`
	MidnightMatches         []MidnightMatch         `json:"midnightMatches"`

	MatchCount         int         `json:"matchCount"`
	TotalPOSRecords    int         `json:"totalPOSRecords"`
	TotalSourceRecords int         `json:"totalSourceRecords"`
	Diagnostics        Diagnostics `json:"diagnostics"`

	// Matches holds the typed results the buckets were built from.
	Matches []matcher.Match `json:"-"`
}

func newOutcome() *Outcome {
	return &Outcome{
		MatchedValues:           make([]MatchedValue, 0),
		UnmatchedInPos:          make([]MatchedValue, 0),
		UnmatchedInSource:       make([]MatchedValue, 0),
		ProbableMatches:         make([]ProbableMatch, 0),
		CombinedProbableMatches: make([]CombinedProbableMatch, 0),
		MidnightMatches:         make([]MidnightMatch, 0),
		Diagnostics:             Diagnostics{Issues: make([]*record.MalformedRecordError, 0)},
	}
}

// assemble builds the outcome buckets from typed matches.
func assemble(in Input, matches []matcher.Match) (*Outcome, error) {
	out := newOutcome()
	out.Matches = matches

	for _, m := range matches {
		switch v := m.(type) {
		case matcher.Exact:
			out.MatchedValues = append(out.MatchedValues, MatchedValue{
				Amount: record.MoneyOf(v.Amount()),
				Date:   v.Date(),
			})
			out.MatchCount++
		case matcher.Probable:
			out.ProbableMatches = append(out.ProbableMatches, ProbableMatch{
				PosValue:    record.MoneyOf(v.POS.Amount),
				SourceValue: record.MoneyOf(v.Source.Amount),
				Date:        v.POS.Date,
				Difference:  record.MoneyOf(v.Difference),
			})
		case matcher.Grouped:
			values := make([]record.Money, len(v.POS))
			for i, p := range v.POS {
				values[i] = record.MoneyOf(p.Amount)
			}
			out.CombinedProbableMatches = append(out.CombinedProbableMatches, CombinedProbableMatch{
				PosValues:   values,
				SourceValue: record.MoneyOf(v.Source.Amount),
				Date:        v.Source.Date,
				Difference:  record.MoneyOf(v.Difference),
			})
		case matcher.Midnight:
			out.MidnightMatches = append(out.MidnightMatches, MidnightMatch{
				PosValue:    record.MoneyOf(v.POS.Amount),
				PosDate:     v.POS.Date,
				SourceValue: record.MoneyOf(v.Source.Amount),
				SourceDate:  v.Source.Date,
				Difference:  record.MoneyOf(v.Difference),
			})
		case matcher.Unmatched:
			entry := MatchedValue{Amount: record.MoneyOf(v.Record.Amount), Date: v.Record.Date}
			if v.Record.Origin == record.OriginPOS {
				out.UnmatchedInPos = append(out.UnmatchedInPos, entry)
			} else {
				out.UnmatchedInSource = append(out.UnmatchedInSource, entry)
			}
		default:
			return nil, fmt.Errorf("%w: unknown match kind %T", ErrPartitionViolation, m)
		}
	}

	sortByDate(out.UnmatchedInPos)
	sortByDate(out.UnmatchedInSource)

	for _, issue := range in.Rejected {
		if issue.Origin == record.OriginPOS {
			out.Diagnostics.MalformedPOS++
		} else {
			out.Diagnostics.MalformedSource++
		}
		out.Diagnostics.Issues = append(out.Diagnostics.Issues, issue)
	}
	out.TotalPOSRecords = len(in.POS) + out.Diagnostics.MalformedPOS
	out.TotalSourceRecords = len(in.Source) + out.Diagnostics.MalformedSource

	return out, nil
}

func sortByDate(values []MatchedValue) {
	sort.SliceStable(values, func(i, j int) bool {
		return values[i].Date.Before(values[j].Date)
	})
}

// verifyPartition checks that matches account for every input record
// exactly once, by pool position on each side.
func verifyPartition(in Input, matches []matcher.Match) error {
	seen := map[record.Origin][]bool{
		record.OriginPOS:    make([]bool, len(in.POS)),
		record.OriginSource: make([]bool, len(in.Source)),
	}
	for _, m := range matches {
		for _, r := range m.Records() {
			side, ok := seen[r.Origin]
			if !ok || r.Seq < 0 || r.Seq >= len(side) {
				return fmt.Errorf("%w: %s record %d is not part of the input", ErrPartitionViolation, r.Origin, r.Seq)
			}
			if side[r.Seq] {
				return fmt.Errorf("%w: %s record %d accounted for twice", ErrPartitionViolation, r.Origin, r.Seq)
			}
			side[r.Seq] = true
		}
	}
	for _, origin := range []record.Origin{record.OriginPOS, record.OriginSource} {
		for i, ok := range seen[origin] {
			if !ok {
				return fmt.Errorf("%w: %s record %d is missing", ErrPartitionViolation, origin, i)
			}
		}
	}
	return nil
}
