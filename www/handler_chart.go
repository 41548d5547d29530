package www

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/icodeforyou/spotwindow-go/hours"
	"github.com/icodeforyou/spotwindow-go/recommend"
	"github.com/icodeforyou/spotwindow-go/types"
	"github.com/icodeforyou/spotwindow-go/www/chartjs"
	"github.com/samber/lo"
)

// NewChartHandler renders the upcoming prices as a Chart.js config with the
// cheapest window highlighted.
func NewChartHandler(logger *slog.Logger, svc *recommend.Service, defaults RequestDefaults) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		duration, err := intOrDefault(r.URL, "duration", defaults.Duration)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		lookAhead, err := intOrDefault(r.URL, "lookahead", defaults.LookAhead)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		rec, err := svc.RecommendBestTime(r.Context(), duration, lookAhead)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		prices, err := svc.FuturePrices(r.Context(), lookAhead)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		labels := make([]string, len(prices))
		for i, p := range prices {
			labels[i] = hours.Clock(p.HourStart)
		}

		chart := chartjs.NewPriceChart(svc.Zone(), labels)
		for i, p := range prices {
			chart.Data.Datasets[chartjs.DatasetPrice].Data[i] = chartjs.FixedFloat64(p.Price, 2)
			if inWindow(p.HourStart, rec.WindowStart, rec.WindowEnd) {
				chart.Data.Datasets[chartjs.DatasetWindow].Data[i] = chartjs.FixedFloat64(p.Price, 2)
			}
		}

		values := lo.Map(prices, func(p types.HourlyPrice, _ int) float64 { return p.Price })
		if len(values) > 0 {
			chart.Options.Scales[chartjs.PriceAxis] = chart.Options.Scales[chartjs.PriceAxis].
				WithTitle("c/kWh").
				WithMinAndMax(min(0, lo.Min(values)), lo.Max(values))
		}

		writeJSON(w, logger, http.StatusOK, chart)
	})
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
