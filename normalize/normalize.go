package normalize

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/icodeforyou/spotwindow-go/convert"
	"github.com/icodeforyou/spotwindow-go/hours"
	"github.com/icodeforyou/spotwindow-go/types"
)

const DefaultResolutionMinutes = 60

// ResolutionPolicy decides what happens to a series declaring a resolution
// other than 15, 30 or 60 minutes.
type ResolutionPolicy string

const (
	PolicyLenient ResolutionPolicy = "lenient" // warn and treat as 60 minutes
	PolicyStrict  ResolutionPolicy = "strict"  // reject as a data error
)

var supportedResolutions = map[string]int{
	"PT15M": 15,
	"PT30M": 30,
	"PT60M": 60,
	"PT1H":  60,
}

func ParseResolution(s string) (int, bool) {
	minutes, ok := supportedResolutions[strings.ToUpper(strings.TrimSpace(s))]
	return minutes, ok
}

// ResolutionOf formats a point duration the way upstream documents declare it.
func ResolutionOf(d time.Duration) string {
	return fmt.Sprintf("PT%dM", int(d.Minutes()))
}

type Normalizer struct {
	logger *slog.Logger
	policy ResolutionPolicy
}

func New(logger *slog.Logger, policy ResolutionPolicy) *Normalizer {
	if policy != PolicyStrict {
		policy = PolicyLenient
	}
	return &Normalizer{logger: logger, policy: policy}
}

// Points expands raw series into absolute, unit converted price points.
func (n *Normalizer) Points(series []types.RawSeries) ([]types.PricePoint, error) {
	var points []types.PricePoint
	for _, s := range series {
		minutes, ok := ParseResolution(s.Resolution)
		if !ok {
			if n.policy == PolicyStrict {
				return nil, fmt.Errorf("%w: unsupported resolution %q", types.ErrData, s.Resolution)
			}
			n.logger.Warn("unsupported resolution, treating series as hourly",
				slog.String("resolution", s.Resolution),
				slog.Time("periodStart", s.PeriodStart),
				slog.Int("points", len(s.Points)))
			minutes = DefaultResolutionMinutes
		}

		step := time.Duration(minutes) * time.Minute
		for _, p := range s.Points {
			if p.Position < 1 {
				return nil, fmt.Errorf("%w: invalid point position %d in period starting %s",
					types.ErrData, p.Position, hours.IsoString(s.PeriodStart))
			}
			points = append(points, types.PricePoint{
				Timestamp:         s.PeriodStart.UTC().Add(time.Duration(p.Position-1) * step),
				Price:             convert.MWhToCentsPerKWh(p.PriceAmount),
				ResolutionMinutes: minutes,
			})
		}
	}
	return points, nil
}

// Hourly groups points by UTC clock hour and averages each group,
// rounded to two decimals. Hours without points are left out.
func Hourly(points []types.PricePoint) []types.HourlyPrice {
	byHour := make(map[int64][]float64)
	for _, p := range points {
		h := hours.Truncate(p.Timestamp).Unix()
		byHour[h] = append(byHour[h], p.Price)
	}

	result := make([]types.HourlyPrice, 0, len(byHour))
	for h, prices := range byHour {
		result = append(result, types.HourlyPrice{
			HourStart: time.Unix(h, 0).UTC(),
			Price:     convert.TwoDecimals(convert.Mean(prices)),
		})
	}

	slices.SortFunc(result, func(a, b types.HourlyPrice) int {
		return a.HourStart.Compare(b.HourStart)
	})
	return result
}

func (n *Normalizer) Normalize(series []types.RawSeries) ([]types.HourlyPrice, error) {
	points, err := n.Points(series)
	if err != nil {
		return nil, err
	}
	return Hourly(points), nil
}
