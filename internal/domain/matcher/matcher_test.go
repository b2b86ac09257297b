package matcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/orderrecon/internal/domain/record"
)

func TestMatcher_MatchExact(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	t.Run("pairs identical date and amount", func(t *testing.T) {
		pool := record.NewPool(
			[]record.OrderRecord{pos("100", "2024-01-05")},
			[]record.OrderRecord{src("100.00", "2024-01-05")},
		)

		matches, err := m.MatchExact(pool)
		require.NoError(t, err)

		require.Len(t, matches, 1)
		assert.Equal(t, "2024-01-05", matches[0].Date().String())
		assert.True(t, dec("100").Equal(matches[0].Amount()))
		assert.Equal(t, 0, pool.Len(record.OriginPOS))
		assert.Equal(t, 0, pool.Len(record.OriginSource))
	})

	t.Run("different date or amount is not exact", func(t *testing.T) {
		pool := record.NewPool(
			[]record.OrderRecord{pos("100", "2024-01-05"), pos("50", "2024-01-05")},
			[]record.OrderRecord{src("100", "2024-01-06"), src("50.01", "2024-01-05")},
		)

		matches, err := m.MatchExact(pool)
		require.NoError(t, err)

		assert.Empty(t, matches)
		assert.Equal(t, 2, pool.Len(record.OriginPOS))
		assert.Equal(t, 2, pool.Len(record.OriginSource))
	})

	t.Run("duplicate keys pair first with first", func(t *testing.T) {
		p := []record.OrderRecord{pos("20", "2024-01-05"), pos("20", "2024-01-05"), pos("20", "2024-01-05")}
		p[0].RawID, p[1].RawID, p[2].RawID = "p0", "p1", "p2"
		s := []record.OrderRecord{src("20", "2024-01-05"), src("20", "2024-01-05")}
		s[0].RawID, s[1].RawID = "s0", "s1"
		pool := record.NewPool(p, s)

		matches, err := m.MatchExact(pool)
		require.NoError(t, err)

		require.Len(t, matches, 2)
		assert.Equal(t, "p0", matches[0].POS.RawID)
		assert.Equal(t, "s0", matches[0].Source.RawID)
		assert.Equal(t, "p1", matches[1].POS.RawID)
		assert.Equal(t, "s1", matches[1].Source.RawID)

		left := pool.Remaining(record.OriginPOS)
		require.Len(t, left, 1)
		assert.Equal(t, "p2", left[0].Record.RawID)
	})

	t.Run("results ordered by date", func(t *testing.T) {
		pool := record.NewPool(
			[]record.OrderRecord{pos("10", "2024-01-07"), pos("10", "2024-01-05")},
			[]record.OrderRecord{src("10", "2024-01-05"), src("10", "2024-01-07")},
		)

		matches, err := m.MatchExact(pool)
		require.NoError(t, err)

		require.Len(t, matches, 2)
		assert.Equal(t, "2024-01-05", matches[0].Date().String())
		assert.Equal(t, "2024-01-07", matches[1].Date().String())
	})
}

func TestMatcher_MatchProbable(t *testing.T) {
	ctx := context.Background()

	t.Run("within five percent", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tolerance = Tolerance{Percent: dec("5")}
		m := NewMatcher(cfg)
		pool := record.NewPool(
			[]record.OrderRecord{pos("100", "2024-01-05")},
			[]record.OrderRecord{src("104", "2024-01-05")},
		)

		matches, err := m.MatchProbable(ctx, pool)
		require.NoError(t, err)

		require.Len(t, matches, 1)
		assert.True(t, dec("4").Equal(matches[0].Difference))
		assert.Equal(t, "2024-01-05", matches[0].POS.Date.String())
	})

	t.Run("difference exactly at tolerance matches", func(t *testing.T) {
		m := NewMatcher(absoluteOnly("5"))
		pool := record.NewPool(
			[]record.OrderRecord{pos("100", "2024-01-05")},
			[]record.OrderRecord{src("105", "2024-01-05")},
		)

		matches, err := m.MatchProbable(ctx, pool)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.True(t, dec("5").Equal(matches[0].Difference))
	})

	t.Run("one unit beyond tolerance does not match", func(t *testing.T) {
		m := NewMatcher(absoluteOnly("5"))
		pool := record.NewPool(
			[]record.OrderRecord{pos("100", "2024-01-05"), pos("200", "2024-01-05")},
			[]record.OrderRecord{src("106", "2024-01-05"), src("194.99", "2024-01-05")},
		)

		matches, err := m.MatchProbable(ctx, pool)
		require.NoError(t, err)
		assert.Empty(t, matches)
		assert.Equal(t, 2, pool.Len(record.OriginPOS))
	})

	t.Run("smallest difference is claimed first", func(t *testing.T) {
		m := NewMatcher(absoluteOnly("10"))
		// Greedy by difference pairs 103<->104 (1) before 100<->104 (4),
		// leaving 100<->98 (-2).
		pool := record.NewPool(
			[]record.OrderRecord{pos("100", "2024-01-05"), pos("103", "2024-01-05")},
			[]record.OrderRecord{src("104", "2024-01-05"), src("98", "2024-01-05")},
		)

		matches, err := m.MatchProbable(ctx, pool)
		require.NoError(t, err)

		require.Len(t, matches, 2)
		assert.Equal(t, "100.00", matches[0].POS.Amount.StringFixed(2))
		assert.Equal(t, "98.00", matches[0].Source.Amount.StringFixed(2))
		assert.True(t, dec("-2").Equal(matches[0].Difference))
		assert.Equal(t, "103.00", matches[1].POS.Amount.StringFixed(2))
		assert.Equal(t, "104.00", matches[1].Source.Amount.StringFixed(2))
	})

	t.Run("ties go to the earlier POS record", func(t *testing.T) {
		m := NewMatcher(absoluteOnly("10"))
		p := []record.OrderRecord{pos("98", "2024-01-05"), pos("102", "2024-01-05")}
		p[0].RawID, p[1].RawID = "first", "second"
		pool := record.NewPool(p, []record.OrderRecord{src("100", "2024-01-05")})

		matches, err := m.MatchProbable(ctx, pool)
		require.NoError(t, err)

		require.Len(t, matches, 1)
		assert.Equal(t, "first", matches[0].POS.RawID)
	})

	t.Run("only same date is considered", func(t *testing.T) {
		m := NewMatcher(absoluteOnly("10"))
		pool := record.NewPool(
			[]record.OrderRecord{pos("100", "2024-01-05")},
			[]record.OrderRecord{src("101", "2024-01-06")},
		)

		matches, err := m.MatchProbable(ctx, pool)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

func TestMatcher_MatchGrouped(t *testing.T) {
	ctx := context.Background()

	t.Run("two POS tickets explain one source order", func(t *testing.T) {
		m := NewMatcher(DefaultConfig())
		pool := record.NewPool(
			[]record.OrderRecord{pos("60", "2024-01-05"), pos("40", "2024-01-05")},
			[]record.OrderRecord{src("100", "2024-01-05")},
		)

		matches, err := m.MatchGrouped(ctx, pool)
		require.NoError(t, err)

		require.Len(t, matches, 1)
		assert.Equal(t, []string{"60.00", "40.00"}, amounts(matches[0].POS))
		assert.True(t, matches[0].Difference.IsZero())
		assert.Equal(t, 0, pool.Len(record.OriginPOS))
		assert.Equal(t, 0, pool.Len(record.OriginSource))
	})

	t.Run("smaller group wins over closer larger group", func(t *testing.T) {
		m := NewMatcher(absoluteOnly("2"))
		// 52+47 = 99 (diff 1) beats 50+30+20 = 100 (diff 0).
		pool := record.NewPool(
			[]record.OrderRecord{
				pos("50", "2024-01-05"),
				pos("30", "2024-01-05"),
				pos("20", "2024-01-05"),
				pos("52", "2024-01-05"),
				pos("47", "2024-01-05"),
			},
			[]record.OrderRecord{src("100", "2024-01-05")},
		)

		matches, err := m.MatchGrouped(ctx, pool)
		require.NoError(t, err)

		require.Len(t, matches, 1)
		assert.Equal(t, []string{"52.00", "47.00"}, amounts(matches[0].POS))
		assert.True(t, dec("1").Equal(matches[0].Difference))
	})

	t.Run("closest sum wins within a group size", func(t *testing.T) {
		m := NewMatcher(absoluteOnly("5"))
		pool := record.NewPool(
			[]record.OrderRecord{
				pos("70", "2024-01-05"),
				pos("27", "2024-01-05"),
				pos("29", "2024-01-05"),
			},
			[]record.OrderRecord{src("100", "2024-01-05")},
		)

		matches, err := m.MatchGrouped(ctx, pool)
		require.NoError(t, err)

		require.Len(t, matches, 1)
		assert.Equal(t, []string{"70.00", "29.00"}, amounts(matches[0].POS))
		assert.True(t, dec("1").Equal(matches[0].Difference))
	})

	t.Run("equal differences go to the earliest subset", func(t *testing.T) {
		m := NewMatcher(DefaultConfig())
		p := []record.OrderRecord{
			pos("40", "2024-01-05"),
			pos("60", "2024-01-05"),
			pos("40", "2024-01-05"),
		}
		p[0].RawID, p[1].RawID, p[2].RawID = "a", "b", "c"
		pool := record.NewPool(p, []record.OrderRecord{src("100", "2024-01-05")})

		matches, err := m.MatchGrouped(ctx, pool)
		require.NoError(t, err)

		require.Len(t, matches, 1)
		assert.Equal(t, "a", matches[0].POS[0].RawID)
		assert.Equal(t, "b", matches[0].POS[1].RawID)
	})

	t.Run("POS values keep original order", func(t *testing.T) {
		m := NewMatcher(DefaultConfig())
		pool := record.NewPool(
			[]record.OrderRecord{pos("10", "2024-01-05"), pos("55", "2024-01-05"), pos("35", "2024-01-05")},
			[]record.OrderRecord{src("100", "2024-01-05")},
		)

		matches, err := m.MatchGrouped(ctx, pool)
		require.NoError(t, err)

		require.Len(t, matches, 1)
		assert.Equal(t, []string{"10.00", "55.00", "35.00"}, amounts(matches[0].POS))
	})

	t.Run("group size at the cap matches and beyond it does not", func(t *testing.T) {
		five := []record.OrderRecord{
			pos("20", "2024-01-05"), pos("20", "2024-01-05"), pos("20", "2024-01-05"),
			pos("20", "2024-01-05"), pos("20", "2024-01-05"),
		}

		cfg := DefaultConfig()
		cfg.MaxGroupSize = 5
		pool := record.NewPool(five, []record.OrderRecord{src("100", "2024-01-05")})
		matches, err := NewMatcher(cfg).MatchGrouped(ctx, pool)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Len(t, matches[0].POS, 5)

		cfg.MaxGroupSize = 4
		pool = record.NewPool(five, []record.OrderRecord{src("100", "2024-01-05")})
		matches, err = NewMatcher(cfg).MatchGrouped(ctx, pool)
		require.NoError(t, err)
		assert.Empty(t, matches)
		assert.Equal(t, 5, pool.Len(record.OriginPOS))
		assert.Equal(t, 1, pool.Len(record.OriginSource))
	})

	t.Run("candidate limit bounds the search", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxGroupCandidates = 2
		// The only explaining pair uses the third candidate.
		pool := record.NewPool(
			[]record.OrderRecord{pos("10", "2024-01-05"), pos("11", "2024-01-05"), pos("90", "2024-01-05")},
			[]record.OrderRecord{src("100", "2024-01-05")},
		)

		matches, err := NewMatcher(cfg).MatchGrouped(ctx, pool)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("group found behind many small same-day records", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tolerance = Tolerance{}
		var records []record.OrderRecord
		for i := 0; i < 30; i++ {
			records = append(records, pos("1", "2024-01-05"))
		}
		records = append(records, pos("600", "2024-01-05"), pos("400", "2024-01-05"))
		pool := record.NewPool(records, []record.OrderRecord{src("1000", "2024-01-05")})

		matches, err := NewMatcher(cfg).MatchGrouped(ctx, pool)
		require.NoError(t, err)

		require.Len(t, matches, 1)
		assert.Equal(t, []string{"600.00", "400.00"}, amounts(matches[0].POS))
		assert.True(t, matches[0].Difference.IsZero())
		assert.Equal(t, 30, pool.Len(record.OriginPOS))
	})

	t.Run("no POS record is reused across groups", func(t *testing.T) {
		m := NewMatcher(DefaultConfig())
		pool := record.NewPool(
			[]record.OrderRecord{pos("30", "2024-01-05"), pos("20", "2024-01-05"), pos("25", "2024-01-05"), pos("25", "2024-01-05")},
			[]record.OrderRecord{src("50", "2024-01-05"), src("50", "2024-01-05")},
		)

		matches, err := m.MatchGrouped(ctx, pool)
		require.NoError(t, err)

		require.Len(t, matches, 2)
		assert.Equal(t, []string{"30.00", "20.00"}, amounts(matches[0].POS))
		assert.Equal(t, []string{"25.00", "25.00"}, amounts(matches[1].POS))
		assert.Equal(t, 0, pool.Len(record.OriginPOS))
	})

	t.Run("cancelled context stops the search", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		pool := record.NewPool(
			[]record.OrderRecord{pos("60", "2024-01-05"), pos("40", "2024-01-05")},
			[]record.OrderRecord{src("100", "2024-01-05")},
		)
		_, err := NewMatcher(DefaultConfig()).MatchGrouped(cctx, pool)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMatcher_MatchMidnight(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(DefaultConfig())

	t.Run("late night POS order lands on next platform day", func(t *testing.T) {
		late, err := record.Normalize(record.OriginPOS, record.RawRow{Line: 2, Amount: "50", Date: "2024-01-05 23:50"})
		require.NoError(t, err)
		pool := record.NewPool([]record.OrderRecord{late}, []record.OrderRecord{src("50", "2024-01-06")})

		matches, err := m.MatchMidnight(ctx, pool)
		require.NoError(t, err)

		require.Len(t, matches, 1)
		assert.Equal(t, "2024-01-05", matches[0].POS.Date.String())
		assert.Equal(t, "2024-01-06", matches[0].Source.Date.String())
		assert.Equal(t, 1, matches[0].POS.Date.DaysUntil(matches[0].Source.Date))
		assert.True(t, matches[0].Difference.IsZero())
	})

	t.Run("previous day also qualifies", func(t *testing.T) {
		pool := record.NewPool(
			[]record.OrderRecord{pos("50", "2024-01-06")},
			[]record.OrderRecord{src("52", "2024-01-05")},
		)

		matches, err := m.MatchMidnight(ctx, pool)
		require.NoError(t, err)

		require.Len(t, matches, 1)
		assert.True(t, dec("2").Equal(matches[0].Difference))
	})

	t.Run("two days apart never matches", func(t *testing.T) {
		pool := record.NewPool(
			[]record.OrderRecord{pos("50", "2024-01-05")},
			[]record.OrderRecord{src("50", "2024-01-07"), src("50", "2024-01-03")},
		)

		matches, err := m.MatchMidnight(ctx, pool)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("exact amount preferred over closer day tolerance", func(t *testing.T) {
		pool := record.NewPool(
			[]record.OrderRecord{pos("50", "2024-01-05")},
			[]record.OrderRecord{src("51", "2024-01-06"), src("50", "2024-01-04")},
		)

		matches, err := m.MatchMidnight(ctx, pool)
		require.NoError(t, err)

		require.Len(t, matches, 1)
		assert.Equal(t, "2024-01-04", matches[0].Source.Date.String())
		assert.True(t, matches[0].Difference.IsZero())
	})

	t.Run("following day wins a tie", func(t *testing.T) {
		pool := record.NewPool(
			[]record.OrderRecord{pos("50", "2024-01-05")},
			[]record.OrderRecord{src("49", "2024-01-04"), src("51", "2024-01-06")},
		)

		matches, err := m.MatchMidnight(ctx, pool)
		require.NoError(t, err)

		require.Len(t, matches, 1)
		assert.Equal(t, "2024-01-06", matches[0].Source.Date.String())
	})

	t.Run("exact amount on adjacent day is kept for its own POS record", func(t *testing.T) {
		pool := record.NewPool(
			[]record.OrderRecord{pos("100", "2024-01-05"), pos("104", "2024-01-05")},
			[]record.OrderRecord{src("104", "2024-01-06")},
		)

		matches, err := m.MatchMidnight(ctx, pool)
		require.NoError(t, err)

		require.Len(t, matches, 1)
		assert.Equal(t, "104.00", matches[0].POS.Amount.StringFixed(2))
		assert.True(t, matches[0].Difference.IsZero())
		remaining := pool.Remaining(record.OriginPOS)
		require.Len(t, remaining, 1)
		assert.Equal(t, "100.00", remaining[0].Record.Amount.StringFixed(2))
	})

	t.Run("a source record is claimed once", func(t *testing.T) {
		pool := record.NewPool(
			[]record.OrderRecord{pos("50", "2024-01-05"), pos("50", "2024-01-07")},
			[]record.OrderRecord{src("50", "2024-01-06")},
		)

		matches, err := m.MatchMidnight(ctx, pool)
		require.NoError(t, err)

		require.Len(t, matches, 1)
		assert.Equal(t, "2024-01-05", matches[0].POS.Date.String())
		assert.Equal(t, 1, pool.Len(record.OriginPOS))
	})
}

func TestMatcher_WorkerCountDoesNotChangeResults(t *testing.T) {
	ctx := context.Background()

	var p, s []record.OrderRecord
	for day := 1; day <= 9; day++ {
		date := record.MustParseDate("2024-03-01").AddDays(day).String()
		p = append(p, pos("100", date), pos("61", date), pos("39.50", date), pos("12", date))
		s = append(s, src("103", date), src("100", date), src("13", date))
	}

	run := func(workers int) ([]Probable, []Grouped) {
		m := NewMatcher(DefaultConfig()).WithWorkers(workers)
		pool := record.NewPool(p, s)
		probable, err := m.MatchProbable(ctx, pool)
		require.NoError(t, err)
		grouped, err := m.MatchGrouped(ctx, pool)
		require.NoError(t, err)
		return probable, grouped
	}

	probable1, grouped1 := run(1)
	probable8, grouped8 := run(8)

	assert.Equal(t, probable1, probable8)
	assert.Equal(t, grouped1, grouped8)
	assert.NotEmpty(t, probable1)
	assert.NotEmpty(t, grouped1)
}
