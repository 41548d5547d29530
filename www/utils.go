package www

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/icodeforyou/spotwindow-go/types"
)

const requestIDHeader = "X-Request-Id"

type RequestDefaults struct {
	Hours     int
	Duration  int
	LookAhead int
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func intOrDefault(u *url.URL, key string, defaultValue int) (int, error) {
	v := u.Query().Get(key)
	if v == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, &badQueryError{key: key, value: v}
	}
	return i, nil
}

type badQueryError struct {
	key   string
	value string
}

func (e *badQueryError) Error() string {
	return "query parameter " + e.key + " is not an integer: " + e.value
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var bq *badQueryError
	switch {
	case errors.As(err, &bq), errors.Is(err, types.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNoCurrentData):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrFetch), errors.Is(err, types.ErrData):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encoding response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("handling request", slog.String("url", r.URL.String()), slog.Any("error", err))
	} else {
		logger.Debug("request rejected", slog.String("url", r.URL.String()), slog.Any("error", err))
	}
	writeJSON(w, logger, status, errorResponse{Error: err.Error(), RequestID: w.Header().Get(requestIDHeader)})
}

// requestMW tags the request with an id and logs it.
func requestMW(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		logger.Debug("http request",
			slog.String("requestId", id),
			slog.String("method", r.Method),
			slog.String("url", r.URL.String()),
			slog.String("remoteAddr", r.RemoteAddr))
		next.ServeHTTP(w, r)
	})
}
