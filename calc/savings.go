package calc

import (
	"github.com/icodeforyou/spotwindow-go/convert"
	"github.com/shopspring/decimal"
)

// Savings is what is saved per kWh by moving consumption from the current
// hour to a window with the given average price. Negative when the window is
// more expensive.
func Savings(currentPrice, averagePrice float64) float64 {
	return decimal.NewFromFloat(currentPrice).
		Sub(decimal.NewFromFloat(averagePrice)).
		InexactFloat64()
}

// SavingsPercentage is savings relative to the current price, one decimal.
// Zero when the current price is zero or negative.
func SavingsPercentage(savings, currentPrice float64) float64 {
	if currentPrice <= 0 {
		return 0
	}
	pct := decimal.NewFromFloat(savings).
		Div(decimal.NewFromFloat(currentPrice)).
		Mul(decimal.NewFromInt(100))
	return convert.OneDecimal(pct.InexactFloat64())
}

// Cost of consuming kWh at a price per kWh.
func Cost(kWh, price float64) float64 {
	return decimal.NewFromFloat(kWh).Mul(decimal.NewFromFloat(price)).InexactFloat64()
}
