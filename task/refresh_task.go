package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/icodeforyou/spotwindow-go/database"
	"github.com/icodeforyou/spotwindow-go/types"
)

type Refresher interface {
	Zone() string
	Source() string
	Refresh(ctx context.Context) error
	Series(ctx context.Context) ([]types.HourlyPrice, error)
}

type RefreshStore interface {
	SaveRefresh(ctx context.Context, r database.RefreshRow) error
}

// NewRefreshTask refetches prices into the cache. Every outcome is recorded
// in the store when there is one, and afterRefresh runs after a success.
func NewRefreshTask(logger *slog.Logger, svc Refresher, store RefreshStore, timeout time.Duration, afterRefresh func()) func() error {
	return func() error {
		logger.Debug("running refresh task...")

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		row := database.RefreshRow{Timestamp: time.Now(), Zone: svc.Zone()}
		err := svc.Refresh(ctx)
		if err != nil {
			logger.Error("refresh task error", slog.Any("error", err))
			row.Error = err.Error()
		} else {
			row.Source = svc.Source()
			if series, serr := svc.Series(ctx); serr == nil {
				row.Hours = len(series)
			}
		}

		if store != nil {
			if serr := store.SaveRefresh(ctx, row); serr != nil {
				logger.Error("refresh task error, saving refresh", slog.Any("error", serr))
			}
		}

		if err != nil {
			return err
		}

		logger.Info("refresh task done", slog.String("source", row.Source), slog.Int("noOfHours", row.Hours))
		if afterRefresh != nil {
			afterRefresh()
		}
		return nil
	}
}
