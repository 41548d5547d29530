package nordpool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/icodeforyou/spotwindow-go/normalize"
	"github.com/icodeforyou/spotwindow-go/types"
	"github.com/samber/lo"
)

const (
	Name       = "nordpool"
	DefaultURL = "https://dataportal-api.nordpoolgroup.com"
)

type Nordpool struct {
	area       string
	baseURL    string
	httpClient *http.Client
}

func New(area string) Nordpool {
	return NewWithURL(area, DefaultURL)
}

func NewWithURL(area, baseURL string) Nordpool {
	return Nordpool{area: area, baseURL: baseURL, httpClient: &http.Client{}}
}

func (n Nordpool) Name() string {
	return Name
}

// Fetch returns one series per delivery period in [start, end), EUR/MWh. The
// portal publishes per delivery date, so every date touched is requested.
// Nord Pool needs no token.
func (n Nordpool) Fetch(ctx context.Context, _ string, start, end time.Time) ([]types.RawSeries, error) {
	series := make([]types.RawSeries, 0)
	for date := start.UTC(); date.Before(end.AddDate(0, 0, 1)); date = date.AddDate(0, 0, 1) {
		entries, err := n.getDayAheadPrices(ctx, date)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.DeliveryStart.Before(start) || !e.DeliveryStart.Before(end) {
				continue
			}
			price, ok := e.EntryPerArea[n.area]
			if !ok {
				continue
			}
			series = append(series, types.RawSeries{
				Resolution:  normalize.ResolutionOf(e.DeliveryEnd.Sub(e.DeliveryStart)),
				PeriodStart: e.DeliveryStart.UTC(),
				Points:      []types.RawPoint{{Position: 1, PriceAmount: price}},
			})
		}
	}

	// Adjacent delivery dates may overlap
	return lo.UniqBy(series, func(s types.RawSeries) int64 { return s.PeriodStart.Unix() }), nil
}

func (n Nordpool) getDayAheadPrices(ctx context.Context, date time.Time) ([]areaEntry, error) {
	q := url.Values{}
	q.Set("date", date.Format("2006-01-02"))
	q.Set("market", "DayAhead")
	q.Set("deliveryArea", n.area)
	q.Set("currency", "EUR")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/api/DayAheadPrices?"+q.Encode(), nil)
	if err != nil {
		return nil, types.NewFetchError(Name, types.ErrBadRequest, fmt.Errorf("failed to create request: %w", err))
	}
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, types.NewFetchError(Name, types.ErrUnreachable, fmt.Errorf("failed to fetch prices: %w", err))
	}
	defer resp.Body.Close()

	// Not published yet
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return []areaEntry{}, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewFetchError(Name, types.KindForStatus(resp.StatusCode), fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	var data dayAheadPrices
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, types.NewFetchError(Name, types.ErrMalformed, fmt.Errorf("failed to decode response: %w", err))
	}

	return data.MultiAreaEntries, nil
}
