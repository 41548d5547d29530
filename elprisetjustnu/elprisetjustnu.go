package elprisetjustnu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/icodeforyou/spotwindow-go/convert"
	"github.com/icodeforyou/spotwindow-go/normalize"
	"github.com/icodeforyou/spotwindow-go/types"
	"github.com/samber/lo"
)

const (
	Name       = "elprisetjustnu"
	DefaultURL = "https://www.elprisetjustnu.se"
)

var Areas = []string{"SE1", "SE2", "SE3", "SE4"}

// Files are published per Swedish calendar date
var stockholm = mustLoadLocation("Europe/Stockholm")

type rawPrice struct {
	SEKPerKWh float64   `json:"SEK_per_kWh"`
	EURPerKWh float64   `json:"EUR_per_kWh"`
	EXR       float64   `json:"EXR"`
	TimeStart time.Time `json:"time_start"`
	TimeEnd   time.Time `json:"time_end"`
}

type ElPrisetJustNu struct {
	area       string
	baseURL    string
	httpClient *http.Client
}

func New(area string) ElPrisetJustNu {
	return NewWithURL(area, DefaultURL)
}

func NewWithURL(area, baseURL string) ElPrisetJustNu {
	return ElPrisetJustNu{area: area, baseURL: baseURL, httpClient: &http.Client{}}
}

func (e ElPrisetJustNu) Name() string {
	return Name
}

// Fetch returns one series per published interval in [start, end). Prices are
// converted from EUR/kWh to EUR/MWh.
func (e ElPrisetJustNu) Fetch(ctx context.Context, _ string, start, end time.Time) ([]types.RawSeries, error) {
	if !lo.Contains(Areas, e.area) {
		return nil, types.NewFetchError(Name, types.ErrBadRequest, fmt.Errorf("unsupported area %s", e.area))
	}

	first := start.In(stockholm)
	first = time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, stockholm)

	series := make([]types.RawSeries, 0)
	for d := first; d.Before(end); d = d.AddDate(0, 0, 1) {
		prices, err := e.getEnergyPrices(ctx, d.Year(), int(d.Month()), d.Day())
		if err != nil {
			return nil, err
		}
		for _, raw := range prices {
			if raw.TimeStart.Before(start) || !raw.TimeStart.Before(end) {
				continue
			}
			series = append(series, types.RawSeries{
				Resolution:  normalize.ResolutionOf(raw.TimeEnd.Sub(raw.TimeStart)),
				PeriodStart: raw.TimeStart.UTC(),
				Points:      []types.RawPoint{{Position: 1, PriceAmount: convert.KWhToMWh(raw.EURPerKWh)}},
			})
		}
	}

	return series, nil
}

func (e ElPrisetJustNu) getEnergyPrices(ctx context.Context, y, m, d int) ([]rawPrice, error) {
	url := fmt.Sprintf("%s/api/v1/prices/%d/%02d-%02d_%s.json",
		e.baseURL, y, m, d, e.area)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, types.NewFetchError(Name, types.ErrBadRequest, fmt.Errorf("failed to create request: %w", err))
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, types.NewFetchError(Name, types.ErrUnreachable, fmt.Errorf("failed to fetch prices: %w", err))
	}
	defer resp.Body.Close()

	// Tomorrow's prices are published in the afternoon
	if resp.StatusCode == http.StatusNotFound {
		return []rawPrice{}, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewFetchError(Name, types.KindForStatus(resp.StatusCode), fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	var rawPrices []rawPrice
	if err := json.NewDecoder(resp.Body).Decode(&rawPrices); err != nil {
		return nil, types.NewFetchError(Name, types.ErrMalformed, fmt.Errorf("failed to decode response: %w", err))
	}

	return rawPrices, nil
}

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("failed to load location %s: %v", name, err))
	}
	return loc
}
