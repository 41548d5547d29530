package www

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/icodeforyou/spotwindow-go/config"
	"github.com/icodeforyou/spotwindow-go/database"
	"github.com/icodeforyou/spotwindow-go/recommend"
)

type SysInfo struct {
	Version   string    `json:"version"`
	StartedAt time.Time `json:"startedAt"`
	Zone      string    `json:"zone"`
	Providers []string  `json:"providers"`
}

type Server struct {
	logger  *slog.Logger
	config  config.AppConfigApi
	svc     *recommend.Service
	db      *database.Database
	hub     *Hub
	mux     *http.ServeMux
	refresh func() error
}

// NewServer wires the JSON API. db may be nil, then the log endpoints answer
// 404. refresh runs the refresh task.
func NewServer(
	svc *recommend.Service,
	db *database.Database,
	refresh func() error,
	cnfg *config.AppConfig,
	sysInfo SysInfo,
) *Server {
	logger := slog.Default().With("module", "www")

	s := &Server{
		logger:  logger,
		config:  cnfg.Api,
		svc:     svc,
		db:      db,
		hub:     NewHub(logger),
		mux:     http.NewServeMux(),
		refresh: refresh,
	}

	defaults := RequestDefaults{
		Hours:     24,
		Duration:  cnfg.Recommend.GetDefaultDuration(),
		LookAhead: cnfg.Recommend.GetDefaultLookAhead(),
	}

	handle := func(pattern, name string, h http.Handler) {
		s.mux.Handle(pattern, requestMW(logger.With(slog.String("handler", name)), h))
	}

	handle("GET /api/price/current", "current", NewCurrentPriceHandler(logger.With(slog.String("handler", "current")), svc))
	handle("GET /api/price/past", "past", NewPastPricesHandler(logger.With(slog.String("handler", "past")), svc, defaults))
	handle("GET /api/price/future", "future", NewFuturePricesHandler(logger.With(slog.String("handler", "future")), svc, defaults))
	handle("GET /api/recommendation", "recommendation", NewRecommendationHandler(logger.With(slog.String("handler", "recommendation")), svc, defaults))
	handle("POST /api/refresh", "refresh", NewRefreshHandler(logger.With(slog.String("handler", "refresh")), refresh))
	handle("GET /api/chart", "chart", NewChartHandler(logger.With(slog.String("handler", "chart")), svc, defaults))
	handle("GET /api/sysinfo", "sysinfo", NewSysInfoHandler(logger.With(slog.String("handler", "sysinfo")), svc, sysInfo))
	if db != nil {
		handle("GET /api/log", "log", NewLogHandler(logger.With(slog.String("handler", "log")), db))
		handle("GET /api/refresh/history", "refresh_history", NewRefreshHistoryHandler(logger.With(slog.String("handler", "refresh_history")), db))
	}

	s.mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		name := r.Header.Get("User-Agent")
		client, err := NewClient(s.hub, w, r, name)
		if err != nil {
			s.logger.Error("new websocket client failed", slog.Any("error", err))
			return
		}
		s.hub.Register <- client
		go client.WritePump()
		go client.ReadPump()
	})

	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Run(ctx context.Context) {
	s.logger.Info("starting server...", "port", s.config.Port)
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Address, s.config.Port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.hub.Run(ctx)

	srvErrors := make(chan error, 1)
	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	ticker := time.NewTicker(s.config.GetPushInterval())
	defer ticker.Stop()

	// Keeping state to avoid spamming logs
	pushErrorState := false

	for {
		select {
		case err := <-srvErrors:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("server error", slog.Any("error", err))
			}
			return

		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second*5)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("server shutdown failed", slog.Any("error", err))
			}
			return

		case <-ticker.C:
			buf, err := s.livePrice(ctx)
			if err != nil {
				if !pushErrorState {
					pushErrorState = true
					s.logger.Warn("failed to get live price", slog.Any("error", err))
				}
				continue
			}
			pushErrorState = false
			select {
			case s.hub.Broadcast <- buf:
			case <-ctx.Done():
			}
		}
	}
}

type LivePrice struct {
	Zone      string    `json:"zone"`
	HourStart time.Time `json:"hourStart"`
	Price     float64   `json:"price"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetchedAt"`
}

func (s *Server) livePrice(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cur, err := s.svc.CurrentPrice(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(LivePrice{
		Zone:      s.svc.Zone(),
		HourStart: cur.HourStart,
		Price:     cur.Price,
		Source:    s.svc.Source(),
		FetchedAt: s.svc.FetchedAt(),
	})
}
