package www

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/icodeforyou/spotwindow-go/config"
	"github.com/icodeforyou/spotwindow-go/database"
	"github.com/icodeforyou/spotwindow-go/recommend"
	"github.com/icodeforyou/spotwindow-go/types"
	"github.com/icodeforyou/spotwindow-go/www/chartjs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var midnight = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

type stubProvider struct {
	err    error
	prices []float64 // EUR/MWh from midnight
}

func (p stubProvider) Name() string { return "stub" }

func (p stubProvider) Fetch(_ context.Context, _ string, _, _ time.Time) ([]types.RawSeries, error) {
	if p.err != nil {
		return nil, p.err
	}
	points := make([]types.RawPoint, len(p.prices))
	for i, v := range p.prices {
		points[i] = types.RawPoint{Position: i + 1, PriceAmount: v}
	}
	return []types.RawSeries{{Resolution: "PT60M", PeriodStart: midnight, Points: points}}, nil
}

func newTestServer(t *testing.T, now time.Time, provider stubProvider, refresh func() error) *Server {
	t.Helper()
	return newTestServerWithDB(t, now, provider, refresh, nil)
}

func newTestServerWithDB(t *testing.T, now time.Time, provider stubProvider, refresh func() error, db *database.Database) *Server {
	t.Helper()
	svc := recommend.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), recommend.Options{
		Zone:      "NL",
		Token:     "token",
		Providers: []types.MarketDataFetcher{provider},
		TTL:       time.Hour,
		Clock:     func() time.Time { return now },
	})
	if refresh == nil {
		refresh = func() error { return svc.Refresh(context.Background()) }
	}
	return NewServer(svc, db, refresh, &config.AppConfig{}, SysInfo{Version: "test", StartedAt: now.Add(-time.Hour)})
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

var sixHours = stubProvider{prices: []float64{120, 120, 70, 75, 120, 120}}

func TestRecommendationEndpoint(t *testing.T) {
	s := newTestServer(t, midnight.Add(5*time.Minute), sixHours, nil)

	rec := get(t, s, "/api/recommendation?duration=2&lookahead=6")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	body := decode[recommend.Recommendation](t, rec)
	assert.True(t, midnight.Add(2*time.Hour).Equal(body.WindowStart))
	assert.True(t, midnight.Add(4*time.Hour).Equal(body.WindowEnd))
	assert.Equal(t, 7.25, body.AveragePrice)
	assert.Equal(t, 12.0, body.CurrentPrice)
	assert.Equal(t, 4.75, body.Savings)
	assert.Equal(t, 39.6, body.SavingsPercentage)
	assert.Equal(t, "stub", body.Source)
}

func TestRecommendationEndpointErrors(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		provider stubProvider
		target   string
		status   int
	}{
		{"not a number", midnight, sixHours, "/api/recommendation?duration=two", http.StatusBadRequest},
		{"duration above lookahead", midnight, sixHours, "/api/recommendation?duration=10&lookahead=6", http.StatusBadRequest},
		{"lookahead above max", midnight, sixHours, "/api/recommendation?duration=1&lookahead=500", http.StatusBadRequest},
		{"zero duration", midnight, sixHours, "/api/recommendation?duration=0&lookahead=6", http.StatusBadRequest},
		{"insufficient data", midnight, sixHours, "/api/recommendation?duration=8&lookahead=24", http.StatusUnprocessableEntity},
		{"window beyond data", midnight.Add(10 * time.Hour), stubProvider{prices: []float64{120, 120, 70, 75, 120, 120, 100, 100, 100, 100}}, "/api/recommendation?duration=1&lookahead=1", http.StatusUnprocessableEntity},
		{"provider failure", midnight, stubProvider{err: types.NewFetchError("stub", types.ErrUnauthorized, errors.New("401"))}, "/api/recommendation", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.now, tt.provider, nil)
			rec := get(t, s, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			body := decode[errorResponse](t, rec)
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, rec.Header().Get(requestIDHeader), body.RequestID)
		})
	}
}

func TestCurrentPriceEndpoint(t *testing.T) {
	s := newTestServer(t, midnight.Add(3*time.Hour+10*time.Minute), sixHours, nil)

	rec := get(t, s, "/api/price/current")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[currentPriceResponse](t, rec)
	assert.Equal(t, "NL", body.Zone)
	assert.Equal(t, "stub", body.Source)
	assert.Equal(t, 7.5, body.Price)
	assert.True(t, midnight.Add(3*time.Hour).Equal(body.HourStart))
}

func TestCurrentPriceEndpointNoCurrentData(t *testing.T) {
	s := newTestServer(t, midnight.Add(8*time.Hour), sixHours, nil)

	rec := get(t, s, "/api/price/current")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPastAndFuturePricesEndpoints(t *testing.T) {
	s := newTestServer(t, midnight.Add(3*time.Hour+10*time.Minute), sixHours, nil)

	rec := get(t, s, "/api/price/past?hours=2")
	require.Equal(t, http.StatusOK, rec.Code)
	past := decode[priceResponse](t, rec)
	require.Len(t, past.Prices, 2)
	assert.True(t, midnight.Add(1*time.Hour).Equal(past.Prices[0].HourStart))
	assert.Equal(t, 7.0, past.Prices[1].Price)

	rec = get(t, s, "/api/price/future")
	require.Equal(t, http.StatusOK, rec.Code)
	future := decode[priceResponse](t, rec)
	require.Len(t, future.Prices, 3)
	assert.Equal(t, []float64{7.5, 12.0, 12.0}, []float64{future.Prices[0].Price, future.Prices[1].Price, future.Prices[2].Price})

	rec = get(t, s, "/api/price/future?hours=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	var calls atomic.Int32
	s := newTestServer(t, midnight, sixHours, func() error {
		calls.Add(1)
		return nil
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, calls.Load())

	rec = get(t, s, "/api/refresh")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRefreshEndpointFailure(t *testing.T) {
	s := newTestServer(t, midnight, sixHours, func() error { return errors.New("boom") })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogEndpointsWithoutDatabase(t *testing.T) {
	s := newTestServer(t, midnight, sixHours, nil)

	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/log").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/refresh/history").Code)
}

func TestLogEndpointsWithDatabase(t *testing.T) {
	ctx := context.Background()
	db, err := database.New(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SaveLogEntry(ctx, database.LogEntryRow{Timestamp: midnight, Level: int(slog.LevelWarn), Message: "upstream slow", Attrs: "{}"}))
	require.NoError(t, db.SaveLogEntry(ctx, database.LogEntryRow{Timestamp: midnight, Level: int(slog.LevelDebug), Message: "noise", Attrs: "{}"}))
	require.NoError(t, db.SaveRefresh(ctx, database.RefreshRow{Timestamp: midnight, Zone: "NL", Source: "stub", Hours: 6}))

	s := newTestServerWithDB(t, midnight, sixHours, nil, db)

	rec := get(t, s, "/api/log?level=warn")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]database.LogEntryRow](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, "upstream slow", entries[0].Message)

	rec = get(t, s, "/api/refresh/history")
	require.Equal(t, http.StatusOK, rec.Code)
	refreshes := decode[[]database.RefreshRow](t, rec)
	require.Len(t, refreshes, 1)
	assert.Equal(t, "stub", refreshes[0].Source)
	assert.Equal(t, 6, refreshes[0].Hours)

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/log?page=x").Code)
}

func TestChartEndpoint(t *testing.T) {
	s := newTestServer(t, midnight.Add(5*time.Minute), sixHours, nil)

	rec := get(t, s, "/api/chart?duration=2&lookahead=6")
	require.Equal(t, http.StatusOK, rec.Code)
	chart := decode[chartjs.Chart](t, rec)

	assert.Equal(t, []string{"00:00", "01:00", "02:00", "03:00", "04:00", "05:00"}, chart.Data.Labels)
	require.Len(t, chart.Data.Datasets, 2)
	window := chart.Data.Datasets[chartjs.DatasetWindow].Data
	require.Len(t, window, 6)
	for i, v := range window {
		if i == 2 || i == 3 {
			assert.NotNil(t, v, "hour %d", i)
		} else {
			assert.Nil(t, v, "hour %d", i)
		}
	}
	assert.Equal(t, 12.0, *chart.Data.Datasets[chartjs.DatasetPrice].Data[0])
}

func TestSysInfoEndpoint(t *testing.T) {
	s := newTestServer(t, midnight, sixHours, nil)

	rec := get(t, s, "/api/sysinfo")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[sysInfoResponse](t, rec)
	assert.Equal(t, "test", body.Version)
	assert.Equal(t, "1h0m0s", body.Uptime)
	assert.Equal(t, recommend.DefaultMaxLookAhead, body.MaxLookAhead)
}

func TestRequestIDIsKept(t *testing.T) {
	s := newTestServer(t, midnight, sixHours, nil)
	id := "6f1c0e8a-3b7e-4f7c-9a55-0c7d9d3c1a11"

	req := httptest.NewRequest(http.MethodGet, "/api/sysinfo", nil)
	req.Header.Set(requestIDHeader, id)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(requestIDHeader))
}

func TestWebsocketBroadcast(t *testing.T) {
	s := newTestServer(t, midnight, sixHours, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.hub.Run(ctx)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	buf, err := s.livePrice(context.Background())
	require.NoError(t, err)
	s.hub.Broadcast <- buf

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var live LivePrice
	require.NoError(t, json.Unmarshal(msg, &live))
	assert.Equal(t, "NL", live.Zone)
	assert.Equal(t, 12.0, live.Price)
	assert.Equal(t, "stub", live.Source)
}
