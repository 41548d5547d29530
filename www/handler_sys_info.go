package www

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/icodeforyou/spotwindow-go/recommend"
)

type sysInfoResponse struct {
	SysInfo
	Uptime       string    `json:"uptime"`
	Source       string    `json:"source"`
	FetchedAt    time.Time `json:"fetchedAt"`
	MaxLookAhead int       `json:"maxLookAhead"`
}

func NewSysInfoHandler(logger *slog.Logger, svc *recommend.Service, info SysInfo) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, sysInfoResponse{
			SysInfo:      info,
			Uptime:       svc.Now().Sub(info.StartedAt).Truncate(time.Second).String(),
			Source:       svc.Source(),
			FetchedAt:    svc.FetchedAt(),
			MaxLookAhead: svc.MaxLookAhead(),
		})
	})
}
