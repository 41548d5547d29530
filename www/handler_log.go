package www

import (
	"log/slog"
	"net/http"

	"github.com/icodeforyou/spotwindow-go/database"
	"github.com/icodeforyou/spotwindow-go/logging"
)

func NewLogHandler(logger *slog.Logger, db *database.Database) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, err := intOrDefault(r.URL, "page", 1)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		pageSize, err := intOrDefault(r.URL, "pageSize", 50)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		level := slog.LevelDebug
		if v := r.URL.Query().Get("level"); v != "" {
			level = logging.LevelFromString(&v)
		}

		rows, err := db.GetLogEntries(r.Context(), level, page, pageSize)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, rows)
	})
}
