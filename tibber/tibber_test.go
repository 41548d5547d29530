package tibber

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/icodeforyou/spotwindow-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const priceInfoBody = `{"data":{"viewer":{"home":{"currentSubscription":{"priceInfo":{
  "today": [
    {"startsAt": "2025-03-10T00:00:00.000+01:00", "energy": 0.0843, "currency": "EUR"},
    {"startsAt": "2025-03-10T01:00:00.000+01:00", "energy": 0.0828, "currency": "EUR"}
  ],
  "tomorrow": [
    {"startsAt": "2025-03-10T02:00:00.000+01:00", "energy": 0.091, "currency": "EUR"}
  ]
}}}}}}`

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var q queryRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Contains(t, q.Query, `home(id:"home-1")`)
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := serve(t, http.StatusOK, priceInfoBody)
	tb := NewWithURL("secret", "home-1", srv.URL)

	start := time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC)
	series, err := tb.Fetch(context.Background(), "", start, end)
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.Equal(t, types.RawSeries{
		Resolution:  "PT60M",
		PeriodStart: start,
		Points:      []types.RawPoint{{Position: 1, PriceAmount: 84.3}},
	}, series[0])
	assert.Equal(t, start.Add(time.Hour), series[1].PeriodStart)
	assert.InDelta(t, 82.8, series[1].Points[0].PriceAmount, 1e-9)
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
	}{
		{"unauthorized", http.StatusUnauthorized, "", types.ErrUnauthorized},
		{"server error", http.StatusBadGateway, "", types.ErrUnreachable},
		{"malformed", http.StatusOK, "{", types.ErrMalformed},
		{"graphql error", http.StatusOK, `{"errors":[{"message":"home not found"}]}`, types.ErrBadRequest},
		{"no subscription", http.StatusOK, `{"data":{"viewer":{"home":{"currentSubscription":null}}}}`, types.ErrBadRequest},
		{"currency", http.StatusOK, `{"data":{"viewer":{"home":{"currentSubscription":{"priceInfo":{"today":[{"startsAt":"2025-03-10T00:00:00Z","energy":1.2,"currency":"SEK"}]}}}}}}`, types.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			_, err := NewWithURL("secret", "home-1", srv.URL).Fetch(context.Background(), "", time.Time{}, time.Now())
			assert.ErrorIs(t, err, types.ErrFetch)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestFetchWithoutToken(t *testing.T) {
	_, err := New("", "home-1").Fetch(context.Background(), "", time.Time{}, time.Now())
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestStep(t *testing.T) {
	t0 := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	quarters := []time.Time{t0, t0.Add(15 * time.Minute), t0.Add(30 * time.Minute)}
	assert.Equal(t, 15*time.Minute, step(quarters, 0))
	assert.Equal(t, 15*time.Minute, step(quarters, 2))
	assert.Equal(t, time.Hour, step(quarters[:1], 0))
}
