package recommend

import (
	"fmt"
	"time"

	"github.com/icodeforyou/spotwindow-go/calc"
	"github.com/icodeforyou/spotwindow-go/convert"
	"github.com/icodeforyou/spotwindow-go/hours"
	"github.com/icodeforyou/spotwindow-go/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const DefaultMaxLookAhead = 168

type Recommendation struct {
	WindowStart       time.Time `json:"windowStart"`
	WindowEnd         time.Time `json:"windowEnd"`
	DurationHours     int       `json:"durationHours"`
	AveragePrice      float64   `json:"averagePrice"`
	CurrentPrice      float64   `json:"currentPrice"`
	Savings           float64   `json:"savings"`
	SavingsPercentage float64   `json:"savingsPercentage"`
	Message           string    `json:"message"`
	Source            string    `json:"source,omitempty"`
}

// BestWindow finds the cheapest run of durationHours consecutive hours
// starting within [hour(now), hour(now)+lookAheadHours) and compares it to the
// price of the current hour. The series must be ascending without duplicates.
// lookAheadHours is bounded by DefaultMaxLookAhead, the service may use a
// lower bound.
func BestWindow(series []types.HourlyPrice, now time.Time, durationHours, lookAheadHours int) (Recommendation, error) {
	if err := types.CheckRange("lookAheadHours", lookAheadHours, 1, DefaultMaxLookAhead); err != nil {
		return Recommendation{}, err
	}
	if err := types.CheckRange("durationHours", durationHours, 1, lookAheadHours); err != nil {
		return Recommendation{}, err
	}

	current := hours.Truncate(now)
	horizon := hours.Add(current, lookAheadHours)
	candidates := lo.Filter(series, func(p types.HourlyPrice, _ int) bool {
		return !p.HourStart.Before(current) && p.HourStart.Before(horizon)
	})

	start, sum, err := cheapestRun(candidates, durationHours)
	if err != nil {
		return Recommendation{}, err
	}

	cur, found := lo.Find(series, func(p types.HourlyPrice) bool {
		return p.HourStart.Equal(current)
	})
	if !found {
		return Recommendation{}, fmt.Errorf("%w at %s", types.ErrNoCurrentData, hours.IsoString(current))
	}

	average := convert.TwoDecimals(sum.Div(decimal.NewFromInt(int64(durationHours))).InexactFloat64())
	currentPrice := convert.TwoDecimals(cur.Price)
	savings := convert.TwoDecimals(calc.Savings(currentPrice, average))
	pct := calc.SavingsPercentage(savings, currentPrice)

	windowStart := candidates[start].HourStart
	return Recommendation{
		WindowStart:       windowStart,
		WindowEnd:         hours.Add(windowStart, durationHours),
		DurationHours:     durationHours,
		AveragePrice:      average,
		CurrentPrice:      currentPrice,
		Savings:           savings,
		SavingsPercentage: pct,
		Message:           message(windowStart, durationHours, average, savings, pct),
	}, nil
}

// cheapestRun returns the index and price sum of the first window of n
// entries that are exactly one hour apart and have the lowest sum.
func cheapestRun(candidates []types.HourlyPrice, n int) (int, decimal.Decimal, error) {
	if len(candidates) < n {
		return 0, decimal.Zero, &types.InsufficientDataError{Required: n, Available: len(candidates)}
	}

	best := -1
	var bestSum decimal.Decimal
	longest, run := 0, 0
	for i := range candidates {
		if i > 0 && candidates[i].HourStart.Sub(candidates[i-1].HourStart) == time.Hour {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
		if run < n {
			continue
		}

		first := i - n + 1
		prices := lo.Map(candidates[first:i+1], func(p types.HourlyPrice, _ int) float64 { return p.Price })
		sum := convert.Sum(prices)
		if best < 0 || sum.LessThan(bestSum) {
			best, bestSum = first, sum
		}
	}

	if best < 0 {
		return 0, decimal.Zero, &types.InsufficientDataError{Required: n, Available: longest}
	}
	return best, bestSum, nil
}

func message(start time.Time, duration int, average, savings, pct float64) string {
	when := fmt.Sprintf("Cheapest %dh window starts at %s with an average of %.2f c/kWh", duration, hours.Clock(start), average)
	switch {
	case savings > 0:
		return fmt.Sprintf("%s, potential savings %.2f c/kWh (%.1f%%)", when, savings, pct)
	case savings < 0:
		return fmt.Sprintf("%s, more expensive than now, note that the current price is %.2f c/kWh lower", when, -savings)
	default:
		return when + ", equal to current price."
	}
}
