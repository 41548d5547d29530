package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundFloat64(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		decimals int
		expected float64
	}{
		{name: "round down", input: 8.0849, decimals: 2, expected: 8.08},
		{name: "half rounds up", input: 8.085, decimals: 2, expected: 8.09},
		{name: "binary unfriendly half", input: 1.005, decimals: 2, expected: 1.01},
		{name: "negative half away from zero", input: -2.345, decimals: 2, expected: -2.35},
		{name: "one decimal", input: 39.58, decimals: 1, expected: 39.6},
		{name: "already rounded", input: 7.5, decimals: 2, expected: 7.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RoundFloat64(tt.input, tt.decimals))
		})
	}
}

func TestMWhToCentsPerKWh(t *testing.T) {
	assert.Equal(t, 8.43, MWhToCentsPerKWh(84.3))
	assert.Equal(t, -0.5, MWhToCentsPerKWh(-5))
	assert.Equal(t, 84.3, KWhToMWh(0.0843))
}

func TestMean(t *testing.T) {
	assert.Equal(t, 8.09, TwoDecimals(Mean([]float64{8.43, 8.28, 7.94, 7.71})))
	assert.Zero(t, Mean(nil))

	a := Sum([]float64{0.1, 0.2, 0.3})
	b := Sum([]float64{0.3, 0.2, 0.1})
	assert.True(t, a.Equal(b), "sum should not depend on order, got %v and %v", a, b)
}
