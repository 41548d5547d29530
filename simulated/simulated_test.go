package simulated

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/icodeforyou/spotwindow-go/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	start := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)

	raw, err := New(logger).Fetch(context.Background(), "", start, end)
	require.NoError(t, err)
	require.Len(t, raw, 3)

	series, err := normalize.New(logger, normalize.PolicyStrict).Normalize(raw)
	require.NoError(t, err)
	require.Len(t, series, 72)
	assert.Equal(t, start, series[0].HourStart)
	assert.Equal(t, 6.2, series[0].Price)
	assert.Equal(t, 12.15, series[18].Price)
	assert.Equal(t, series[3].Price, series[27].Price, "same curve every day")
}

func TestFetchPartialDay(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	start := time.Date(2025, 3, 9, 22, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)

	raw, err := New(logger).Fetch(context.Background(), "", start, end)
	require.NoError(t, err)
	require.Len(t, raw, 2)
	assert.Len(t, raw[0].Points, 2)
	assert.Equal(t, 23, raw[0].Points[0].Position)
	assert.Len(t, raw[1].Points, 2)
}
