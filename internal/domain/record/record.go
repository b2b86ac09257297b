// Package record defines the canonical order record that both sides of a
// reconciliation are normalized into before matching.
//
// Amounts are fixed-point decimals rounded to two places, dates are calendar
// dates with no time-of-day. Normalization failures are reported as
// *MalformedRecordError values and never enter the matching pool.
package record

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Origin identifies which export a record came from.
type Origin string

const (
	OriginPOS    Origin = "POS"
	OriginSource Origin = "SOURCE"
)

// AmountPlaces is the number of decimal places amounts are rounded to.
const AmountPlaces = 2

// MaxAmount is the largest amount a cell may hold. Matchers sum amounts as
// int64 cents, which stays exact well above this.
var MaxAmount = decimal.New(1, 12)

// OrderRecord is one normalized order line. It is a value type; matchers
// classify records but never modify them.
type OrderRecord struct {
	Origin Origin
	Amount decimal.Decimal
	Date   Date
	RawID  string
	Line   int
	// Seq is the record's position on its side of a run, set by NewPool.
	Seq int
}

// New builds a record from already-clean values, rounding the amount.
func New(origin Origin, amount decimal.Decimal, date Date, rawID string) OrderRecord {
	return OrderRecord{
		Origin: origin,
		Amount: amount.Round(AmountPlaces),
		Date:   date,
		RawID:  rawID,
	}
}

// Money is a decimal amount that serializes as a JSON number with exactly
// two decimal places.
type Money struct {
	decimal.Decimal
}

// MoneyOf wraps d rounded to two places.
func MoneyOf(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(AmountPlaces)}
}

// MarshalJSON writes the amount as a bare number, e.g. 104.00.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(AmountPlaces)), nil
}

// RawRow is a row after column mapping but before any parsing.
type RawRow struct {
	Line   int
	ID     string
	Amount string
	Date   string
	Time   string
}

var amountNoise = strings.NewReplacer(
	"₹", "",
	"Rs.", "",
	"Rs", "",
	"INR", "",
	",", "",
	" ", "",
	"\u00a0", "",
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"02-01-2006",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 Jan 2006 15:04",
	"02 Jan 2006 15:04",
	"2 Jan 2006 03:04 PM",
	"Jan 2, 2006",
	"01-02-06", // spreadsheet default short date
}

// ParseAmount parses a raw amount cell into a non-negative two-place decimal.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := amountNoise.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Zero, errReason("amount is empty")
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errReason("amount is not numeric")
	}
	if amount.IsNegative() {
		return decimal.Zero, errReason("amount is negative")
	}
	if amount.GreaterThan(MaxAmount) {
		return decimal.Zero, errReason("amount is too large")
	}
	return amount.Round(AmountPlaces), nil
}

// ParseDateCell parses a raw date cell, keeping only the calendar date as
// written. Time-of-day and zone offsets are discarded.
func ParseDateCell(raw string) (Date, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Date{}, errReason("date is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, errReason("date is not in a recognised format")
}

// Normalize turns a raw row into an OrderRecord. Failures are returned as
// *MalformedRecordError.
func Normalize(origin Origin, row RawRow) (OrderRecord, error) {
	rec, malformed := normalize(origin, row)
	if malformed != nil {
		return OrderRecord{}, malformed
	}
	return rec, nil
}

func normalize(origin Origin, row RawRow) (OrderRecord, *MalformedRecordError) {
	amount, err := ParseAmount(row.Amount)
	if err != nil {
		return OrderRecord{}, newMalformed(origin, row, "amount", row.Amount, err)
	}
	date, err := ParseDateCell(row.Date)
	if err != nil {
		return OrderRecord{}, newMalformed(origin, row, "date", row.Date, err)
	}
	return OrderRecord{
		Origin: origin,
		Amount: amount,
		Date:   date,
		RawID:  strings.TrimSpace(row.ID),
		Line:   row.Line,
	}, nil
}

// NormalizeAll normalizes rows in order. Malformed rows are skipped and
// returned separately; the order of good records follows the input.
func NormalizeAll(origin Origin, rows []RawRow) ([]OrderRecord, []*MalformedRecordError) {
	records := make([]OrderRecord, 0, len(rows))
	var rejected []*MalformedRecordError
	for _, row := range rows {
		rec, malformed := normalize(origin, row)
		if malformed != nil {
			rejected = append(rejected, malformed)
			continue
		}
		records = append(records, rec)
	}
	return records, rejected
}
