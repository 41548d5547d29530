package hours

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{
			name:     "quarter past",
			input:    time.Date(2025, 1, 1, 15, 15, 0, 0, time.UTC),
			expected: time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC),
		},
		{
			name:     "last second of hour",
			input:    time.Date(2025, 1, 1, 23, 59, 59, 999, time.UTC),
			expected: time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC),
		},
		{
			name:     "non UTC input is converted",
			input:    time.Date(2025, 1, 1, 1, 30, 0, 0, time.FixedZone("CET", 3600)),
			expected: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "half hour offset zone",
			input:    time.Date(2025, 1, 1, 10, 45, 0, 0, time.FixedZone("ACST", 9*3600+1800)),
			expected: time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Truncate(tt.input)
			assert.True(t, tt.expected.Equal(result), "expected %v, got %v", tt.expected, result)
			assert.Equal(t, time.UTC, result.Location())
		})
	}

	assert.True(t, Truncate(time.Time{}).IsZero())
}

func TestStartOfDay(t *testing.T) {
	tm := time.Date(2025, 3, 30, 22, 10, 0, 0, time.UTC)
	expected := time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC)
	assert.True(t, expected.Equal(StartOfDay(tm)))
}

func TestAdd(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		addHours int
		expected time.Time
	}{
		{
			name:     "add within same day",
			input:    time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
			addHours: 2,
			expected: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name:     "add crossing midnight",
			input:    time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC),
			addHours: 2,
			expected: time.Date(2025, 1, 2, 1, 0, 0, 0, time.UTC),
		},
		{
			name:     "add negative hours (subtract)",
			input:    time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC),
			addHours: -2,
			expected: time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Add(tt.input, tt.addHours)
			assert.True(t, tt.expected.Equal(result), "expected %v, got %v", tt.expected, result)
			assert.Equal(t, tt.addHours, Between(tt.input, result))
		})
	}
}

func TestFromNow(t *testing.T) {
	before := time.Now()
	h := FromNow()
	after := time.Now()
	assert.Equal(t, Truncate(h), h)
	assert.False(t, h.Before(Truncate(before)), "expected the current hour, got %v", h)
	assert.False(t, h.After(Truncate(after)), "expected the current hour, got %v", h)
}

func TestFromIso(t *testing.T) {
	isoStr := "2025-01-01T15:00:00Z"
	parsed := FromIso(isoStr)
	expected := time.Date(2025, time.January, 1, 15, 0, 0, 0, time.UTC)
	assert.True(t, expected.Equal(parsed), "expected %v, got %v", expected, parsed)
	assert.Equal(t, isoStr, IsoString(parsed))
	assert.True(t, FromIso("not a valid iso date").IsZero())
}

func TestClockInDisplayTimezone(t *testing.T) {
	defer func() { displayLocation = time.UTC }()

	tm := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "12:00", Clock(tm))

	require.NoError(t, SetDisplayTimezone("Europe/Amsterdam"))
	assert.Equal(t, "13:00", Clock(tm), "winter time")
	summer := time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "14:00", Clock(summer), "summer time")

	assert.Error(t, SetDisplayTimezone("Not/AZone"))
}
