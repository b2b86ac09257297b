// Package platforms maps the column layouts of supported POS and
// third-party platform exports onto record.RawRow values.
package platforms

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eshaffer321/orderrecon/internal/domain/record"
)

var (
	// ErrUnsupportedPlatformType is returned for a platform name that is not registered.
	ErrUnsupportedPlatformType = errors.New("unsupported platform type")
	// ErrHeaderNotFound is returned when no row carries the profile's required columns.
	ErrHeaderNotFound = errors.New("header row not found")
)

// headerScanRows is how far down an export the header row may sit.
// Several platforms prepend outlet name and report period lines.
const headerScanRows = 15

// Profile describes one platform's export. Each column list holds the
// accepted header captions in preference order; matching ignores case and
// surrounding whitespace.
type Profile struct {
	Name        string        `json:"name"`
	DisplayName string        `json:"displayName"`
	Side        record.Origin `json:"side"`

	IDColumns     []string `json:"idColumns"`
	DateColumns   []string `json:"dateColumns"`
	AmountColumns []string `json:"amountColumns"`
	TimeColumns   []string `json:"timeColumns,omitempty"`
}

type columnIndex struct {
	id, date, amount, time int
}

// Map locates the header row and converts every data row after it. Blank
// rows and trailing summary rows are skipped. Line numbers are 1-based
// sheet rows.
func (p Profile) Map(rows [][]string) ([]record.RawRow, error) {
	headerAt, cols, ok := p.findHeader(rows)
	if !ok {
		return nil, fmt.Errorf("%w: %s export needs columns %s, %s",
			ErrHeaderNotFound, p.DisplayName,
			strings.Join(p.DateColumns, "|"), strings.Join(p.AmountColumns, "|"))
	}

	out := make([]record.RawRow, 0, len(rows)-headerAt-1)
	for i := headerAt + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) || isSummary(row, cols) {
			continue
		}
		out = append(out, record.RawRow{
			Line:   i + 1,
			ID:     cell(row, cols.id),
			Amount: cell(row, cols.amount),
			Date:   cell(row, cols.date),
			Time:   cell(row, cols.time),
		})
	}
	return out, nil
}

func (p Profile) findHeader(rows [][]string) (int, columnIndex, bool) {
	limit := min(len(rows), headerScanRows)
	for i := 0; i < limit; i++ {
		positions := headerPositions(rows[i])
		cols := columnIndex{
			id:     lookup(positions, p.IDColumns),
			date:   lookup(positions, p.DateColumns),
			amount: lookup(positions, p.AmountColumns),
			time:   lookup(positions, p.TimeColumns),
		}
		if cols.date >= 0 && cols.amount >= 0 {
			return i, cols, true
		}
	}
	return 0, columnIndex{}, false
}

func headerPositions(row []string) map[string]int {
	positions := make(map[string]int, len(row))
	for i, caption := range row {
		key := canonical(caption)
		if _, seen := positions[key]; !seen && key != "" {
			positions[key] = i
		}
	}
	return positions
}

func lookup(positions map[string]int, captions []string) int {
	for _, c := range captions {
		if i, ok := positions[canonical(c)]; ok {
			return i
		}
	}
	return -1
}

func canonical(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// isSummary spots footer lines like "Total,,,12345.00" that carry an amount
// but no date.
func isSummary(row []string, cols columnIndex) bool {
	if cell(row, cols.date) != "" {
		return false
	}
	for _, c := range row {
		lc := strings.ToLower(strings.TrimSpace(c))
		if strings.HasPrefix(lc, "total") || strings.HasPrefix(lc, "grand total") {
			return true
		}
	}
	return false
}
