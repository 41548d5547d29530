package types

import (
	"context"
	"time"
)

// RawPoint is a single upstream price observation. Position is 1-based
// within its series.
type RawPoint struct {
	Position    int
	PriceAmount float64 // Wholesale price in currency per MWh
}

// RawSeries is one period of upstream points sharing a resolution.
type RawSeries struct {
	Resolution  string // ISO-8601 duration as declared upstream, e.g. "PT15M"
	PeriodStart time.Time
	Points      []RawPoint
}

type PricePoint struct {
	Timestamp         time.Time
	Price             float64 // Retail price in euro cent per kWh
	ResolutionMinutes int
}

type HourlyPrice struct {
	HourStart time.Time `json:"hourStart"`
	Price     float64   `json:"price"` // Average price in euro cent per kWh
}

// MarketDataFetcher retrieves day-ahead prices for a single market zone.
type MarketDataFetcher interface {
	Name() string
	Fetch(ctx context.Context, token string, start, end time.Time) ([]RawSeries, error)
}
