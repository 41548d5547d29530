package www

import (
	"log/slog"
	"net/http"

	"github.com/icodeforyou/spotwindow-go/database"
)

type refreshResponse struct {
	Status string `json:"status"`
}

func NewRefreshHandler(logger *slog.Logger, refresh func() error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := refresh(); err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, refreshResponse{Status: "ok"})
	})
}

func NewRefreshHistoryHandler(logger *slog.Logger, db *database.Database) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, err := intOrDefault(r.URL, "limit", 24)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		rows, err := db.GetRefreshes(r.Context(), limit)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, rows)
	})
}
