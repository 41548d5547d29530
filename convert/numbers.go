package convert

import (
	"github.com/shopspring/decimal"
)

// Wholesale prices are quoted per MWh, retail per kWh in minor currency
// units: /1000 for the energy unit, *100 for the currency unit.
const mwhToCentsPerKWhDivisor = 10

func TwoDecimals(number float64) float64 {
	return RoundFloat64(number, 2)
}

func OneDecimal(number float64) float64 {
	return RoundFloat64(number, 1)
}

// RoundFloat64 rounds half away from zero on the decimal representation,
// so 8.085 becomes 8.09 and not 8.08.
func RoundFloat64(number float64, decimals int) float64 {
	return decimal.NewFromFloat(number).Round(int32(decimals)).InexactFloat64()
}

func MWhToCentsPerKWh(pricePerMWh float64) float64 {
	return decimal.NewFromFloat(pricePerMWh).
		Div(decimal.NewFromInt(mwhToCentsPerKWhDivisor)).
		InexactFloat64()
}

func KWhToMWh(pricePerKWh float64) float64 {
	return decimal.NewFromFloat(pricePerKWh).Mul(decimal.NewFromInt(1000)).InexactFloat64()
}

// Sum adds the numbers as decimals, equal inputs always give equal sums
// regardless of order.
func Sum(numbers []float64) decimal.Decimal {
	sum := decimal.Zero
	for _, n := range numbers {
		sum = sum.Add(decimal.NewFromFloat(n))
	}
	return sum
}

// Mean returns the arithmetic mean, zero for an empty slice.
func Mean(numbers []float64) float64 {
	if len(numbers) == 0 {
		return 0
	}
	return Sum(numbers).Div(decimal.NewFromInt(int64(len(numbers)))).InexactFloat64()
}
