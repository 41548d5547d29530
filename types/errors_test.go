package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchErrorMatching(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("loading prices: %w", NewFetchError("entsoe", ErrUnreachable, cause))

	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrData)

	var fe *FetchError
	if assert.ErrorAs(t, err, &fe) {
		assert.Equal(t, "entsoe", fe.Provider)
		assert.True(t, fe.Retryable())
	}
}

func TestMalformedIsDataError(t *testing.T) {
	err := NewFetchError("nordpool", ErrMalformed, nil)
	assert.ErrorIs(t, err, ErrData)
	assert.ErrorIs(t, err, ErrFetch)
	assert.False(t, err.Retryable())
	assert.Equal(t, "nordpool: malformed payload", err.Error())
}

func TestCheckRange(t *testing.T) {
	assert.NoError(t, CheckRange("lookAheadHours", 168, 1, 168))

	err := CheckRange("durationHours", 0, 1, 168)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.EqualError(t, err, "invalid parameter durationHours=0, must be between 1 and 168")
}

func TestInsufficientDataError(t *testing.T) {
	var err error = &InsufficientDataError{Required: 3, Available: 2}
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.NotErrorIs(t, err, ErrInvalidParameter)
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Key: "energy_price.token", Reason: "missing"}
	assert.ErrorIs(t, err, ErrConfig)
	assert.EqualError(t, err, "configuration error, energy_price.token: missing")
}

func TestKindForStatus(t *testing.T) {
	assert.ErrorIs(t, KindForStatus(401), ErrUnauthorized)
	assert.ErrorIs(t, KindForStatus(403), ErrUnauthorized)
	assert.ErrorIs(t, KindForStatus(429), ErrUnreachable)
	assert.ErrorIs(t, KindForStatus(502), ErrUnreachable)
	assert.ErrorIs(t, KindForStatus(400), ErrBadRequest)
	assert.ErrorIs(t, KindForStatus(404), ErrBadRequest)
}
