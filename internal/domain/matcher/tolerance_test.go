package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTolerance_Allowance(t *testing.T) {
	tests := []struct {
		name      string
		tolerance Tolerance
		base      string
		want      string
	}{
		{"percent is smaller", Tolerance{Absolute: dec("10"), Percent: dec("5")}, "104", "5.2"},
		{"absolute is smaller", Tolerance{Absolute: dec("10"), Percent: dec("5")}, "1000", "10"},
		{"absolute only", Tolerance{Absolute: dec("3")}, "1000", "3"},
		{"percent only", Tolerance{Percent: dec("10")}, "50", "5"},
		{"nothing set means exact only", Tolerance{}, "50", "0"},
		{"negative component is ignored", Tolerance{Absolute: dec("-1"), Percent: dec("10")}, "50", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.tolerance.Allowance(dec(tt.base))
			assert.True(t, dec(tt.want).Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestTolerance_Within(t *testing.T) {
	tol := Tolerance{Absolute: dec("5")}

	assert.True(t, tol.Within(dec("5"), dec("100")), "difference at the limit matches")
	assert.True(t, tol.Within(dec("-5"), dec("100")), "sign does not matter")
	assert.False(t, tol.Within(dec("5.01"), dec("100")), "one cent beyond does not match")
	assert.False(t, tol.Within(dec("6"), dec("100")), "one unit beyond does not match")
}
