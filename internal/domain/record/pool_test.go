package record

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(origin Origin, amount int64, date string) OrderRecord {
	return New(origin, decimal.NewFromInt(amount), MustParseDate(date), "")
}

func TestPool(t *testing.T) {
	pos := []OrderRecord{
		rec(OriginPOS, 10, "2024-01-05"),
		rec(OriginPOS, 20, "2024-01-06"),
		rec(OriginPOS, 30, "2024-01-05"),
	}
	source := []OrderRecord{rec(OriginSource, 10, "2024-01-05")}

	pool := NewPool(pos, source)
	assert.Equal(t, 3, pool.Len(OriginPOS))
	assert.Equal(t, 1, pool.Len(OriginSource))

	t.Run("by date keeps insertion order", func(t *testing.T) {
		groups := pool.RemainingByDate(OriginPOS)
		require.Len(t, groups, 2)
		day := groups[MustParseDate("2024-01-05")]
		require.Len(t, day, 2)
		assert.Equal(t, 0, day[0].Index)
		assert.Equal(t, 2, day[1].Index)
		assert.Equal(t, 2, day[1].Record.Seq)
		assert.Equal(t, 0, pos[2].Seq, "input slice is not modified")

		dates := SortedDates(groups)
		assert.Equal(t, []Date{MustParseDate("2024-01-05"), MustParseDate("2024-01-06")}, dates)
	})

	t.Run("consume removes exactly once", func(t *testing.T) {
		require.NoError(t, pool.Consume(OriginPOS, 0))
		assert.True(t, pool.IsConsumed(OriginPOS, 0))
		assert.Equal(t, 2, pool.Len(OriginPOS))

		remaining := pool.Remaining(OriginPOS)
		require.Len(t, remaining, 2)
		assert.Equal(t, 1, remaining[0].Index)

		assert.Error(t, pool.Consume(OriginPOS, 0))
		assert.Error(t, pool.Consume(OriginPOS, 9))
		assert.Equal(t, 2, pool.Len(OriginPOS))
	})

	t.Run("input slices are not shared", func(t *testing.T) {
		pos[1] = rec(OriginPOS, 999, "2030-01-01")
		remaining := pool.Remaining(OriginPOS)
		assert.True(t, remaining[0].Record.Amount.Equal(decimal.NewFromInt(20)))
	})
}
