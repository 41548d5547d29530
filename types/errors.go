package types

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrConfig           = errors.New("configuration error")
	ErrFetch            = errors.New("fetch error")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrBadRequest       = errors.New("bad request")
	ErrUnreachable      = errors.New("unreachable")
	ErrMalformed        = errors.New("malformed payload")
	ErrData             = errors.New("data error")
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNoCurrentData    = errors.New("current price unavailable")
)

type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error, %s: %s", e.Key, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

// FetchError is returned by market data fetchers. Kind is one of
// ErrUnauthorized, ErrBadRequest, ErrUnreachable or ErrMalformed.
type FetchError struct {
	Provider string
	Kind     error
	Err      error
}

func NewFetchError(provider string, kind error, err error) *FetchError {
	return &FetchError{Provider: provider, Kind: kind, Err: err}
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() []error {
	errs := []error{ErrFetch, e.Kind}
	if errors.Is(e.Kind, ErrMalformed) {
		errs = append(errs, ErrData)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Retryable reports if the failure is transient, only unreachable upstreams are.
func (e *FetchError) Retryable() bool {
	return errors.Is(e.Kind, ErrUnreachable)
}

type InsufficientDataError struct {
	Required  int
	Available int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data, need %d contiguous hours, %d available", e.Required, e.Available)
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

type InvalidParameterError struct {
	Name  string
	Value int
	Min   int
	Max   int
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%d, must be between %d and %d", e.Name, e.Value, e.Min, e.Max)
}

func (e *InvalidParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// CheckRange returns an InvalidParameterError when value is outside [min, max].
func CheckRange(name string, value, min, max int) error {
	if value < min || value > max {
		return &InvalidParameterError{Name: name, Value: value, Min: min, Max: max}
	}
	return nil
}

// KindForStatus maps the HTTP status of a failed market data request to a
// fetch error kind.
func KindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return ErrUnreachable
	default:
		return ErrBadRequest
	}
}
