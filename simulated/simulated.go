package simulated

import (
	"context"
	"log/slog"
	"time"

	"github.com/icodeforyou/spotwindow-go/hours"
	"github.com/icodeforyou/spotwindow-go/types"
)

const Name = "simulated"

// EUR/MWh per UTC hour of day, low at night and midday, peaks morning and evening
var profile = [24]float64{
	62.0, 58.5, 55.0, 53.5, 54.0, 60.0,
	78.5, 96.0, 104.5, 92.0, 81.0, 72.5,
	66.0, 63.5, 67.0, 75.5, 88.0, 109.0,
	121.5, 114.0, 98.5, 86.0, 75.0, 68.0,
}

// Simulated produces a fixed synthetic price curve. It is only used when
// configured as the fallback and every real provider has failed.
type Simulated struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) Simulated {
	return Simulated{logger: logger}
}

func (s Simulated) Name() string {
	return Name
}

func (s Simulated) Fetch(_ context.Context, _ string, start, end time.Time) ([]types.RawSeries, error) {
	s.logger.Warn("serving simulated prices",
		slog.String("start", hours.IsoString(start)),
		slog.String("end", hours.IsoString(end)))

	series := make([]types.RawSeries, 0)
	for day := hours.StartOfDay(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		points := make([]types.RawPoint, 0, len(profile))
		for h, price := range profile {
			t := hours.Add(day, h)
			if t.Before(start) || !t.Before(end) {
				continue
			}
			points = append(points, types.RawPoint{Position: h + 1, PriceAmount: price})
		}
		if len(points) > 0 {
			series = append(series, types.RawSeries{Resolution: "PT60M", PeriodStart: day, Points: points})
		}
	}
	return series, nil
}
