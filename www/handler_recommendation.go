package www

import (
	"log/slog"
	"net/http"

	"github.com/icodeforyou/spotwindow-go/recommend"
)

func NewRecommendationHandler(logger *slog.Logger, svc *recommend.Service, defaults RequestDefaults) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		duration, err := intOrDefault(r.URL, "duration", defaults.Duration)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		lookAhead, err := intOrDefault(r.URL, "lookahead", defaults.LookAhead)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		rec, err := svc.RecommendBestTime(r.Context(), duration, lookAhead)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, rec)
	})
}
