package matcher

import (
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/orderrecon/internal/domain/record"
)

func pos(amount, date string) record.OrderRecord {
	return record.New(record.OriginPOS, decimal.RequireFromString(amount), record.MustParseDate(date), "")
}

func src(amount, date string) record.OrderRecord {
	return record.New(record.OriginSource, decimal.RequireFromString(amount), record.MustParseDate(date), "")
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func amounts(records []record.OrderRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Amount.StringFixed(2)
	}
	return out
}

// absoluteOnly is a tolerance of exactly limit currency units.
func absoluteOnly(limit string) Config {
	cfg := DefaultConfig()
	cfg.Tolerance = Tolerance{Absolute: dec(limit)}
	return cfg
}
