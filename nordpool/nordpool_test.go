package nordpool

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/icodeforyou/spotwindow-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day10 = `{
  "deliveryDateCET": "2025-03-10",
  "version": 3,
  "market": "DayAhead",
  "currency": "EUR",
  "multiAreaEntries": [
    {"deliveryStart": "2025-03-09T23:00:00Z", "deliveryEnd": "2025-03-09T23:15:00Z", "entryPerArea": {"SE3": 84.3, "SE4": 90.0}},
    {"deliveryStart": "2025-03-09T23:15:00Z", "deliveryEnd": "2025-03-09T23:30:00Z", "entryPerArea": {"SE3": 82.8, "SE4": 90.0}},
    {"deliveryStart": "2025-03-10T00:00:00Z", "deliveryEnd": "2025-03-10T01:00:00Z", "entryPerArea": {"SE4": 91.0}}
  ]
}`

func TestFetch(t *testing.T) {
	var dates []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/DayAheadPrices", r.URL.Path)
		assert.Equal(t, "SE3", r.URL.Query().Get("deliveryArea"))
		assert.Equal(t, "EUR", r.URL.Query().Get("currency"))
		date := r.URL.Query().Get("date")
		dates = append(dates, date)
		if date == "2025-03-10" {
			fmt.Fprint(w, day10)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	np := NewWithURL("SE3", srv.URL)
	start := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	series, err := np.Fetch(context.Background(), "", start, end)
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-03-09", "2025-03-10", "2025-03-11"}, dates)
	require.Len(t, series, 2)
	assert.Equal(t, types.RawSeries{
		Resolution:  "PT15M",
		PeriodStart: time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC),
		Points:      []types.RawPoint{{Position: 1, PriceAmount: 84.3}},
	}, series[0])
	assert.Equal(t, time.Date(2025, 3, 9, 23, 15, 0, 0, time.UTC), series[1].PeriodStart)
}

func TestFetchFiltersRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, day10)
	}))
	defer srv.Close()

	np := NewWithURL("SE4", srv.URL)
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC)

	series, err := np.Fetch(context.Background(), "", start, end)
	require.NoError(t, err)
	require.Len(t, series, 1, "entries outside the range and duplicates are dropped")
	assert.Equal(t, "PT60M", series[0].Resolution)
	assert.Equal(t, 91.0, series[0].Points[0].PriceAmount)
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
	}{
		{"server error", http.StatusBadGateway, "", types.ErrUnreachable},
		{"bad request", http.StatusBadRequest, "", types.ErrBadRequest},
		{"malformed", http.StatusOK, `{"multiAreaEntries": [`, types.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewWithURL("SE3", srv.URL).Fetch(context.Background(), "", time.Now(), time.Now().Add(time.Hour))
			assert.ErrorIs(t, err, tt.kind)
			assert.ErrorIs(t, err, types.ErrFetch)
		})
	}
}
