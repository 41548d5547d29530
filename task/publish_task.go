package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/icodeforyou/spotwindow-go/recommend"
	"github.com/icodeforyou/spotwindow-go/types"
)

type PriceSource interface {
	Zone() string
	Source() string
	CurrentPrice(ctx context.Context) (types.HourlyPrice, error)
	RecommendBestTime(ctx context.Context, durationHours, lookAheadHours int) (recommend.Recommendation, error)
}

type Publisher interface {
	PublishCurrentPrice(zone, source string, price types.HourlyPrice) error
	PublishRecommendation(zone string, rec recommend.Recommendation) error
}

// NewPublishTask publishes the current price and a recommendation for the
// default duration and look-ahead.
func NewPublishTask(logger *slog.Logger, svc PriceSource, pub Publisher, duration, lookAhead int) func() {
	return func() {
		logger.Debug("running publish task...")

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		published := 0
		if cur, err := svc.CurrentPrice(ctx); err != nil {
			logger.Warn("publish task, no current price", slog.Any("error", err))
		} else if err := pub.PublishCurrentPrice(svc.Zone(), svc.Source(), cur); err != nil {
			logger.Error("publish task error, current price", slog.Any("error", err))
		} else {
			published++
		}

		if rec, err := svc.RecommendBestTime(ctx, duration, lookAhead); err != nil {
			logger.Warn("publish task, no recommendation", slog.Any("error", err))
		} else if err := pub.PublishRecommendation(svc.Zone(), rec); err != nil {
			logger.Error("publish task error, recommendation", slog.Any("error", err))
		} else {
			published++
		}

		logger.Info("publish task done", slog.Int("noOfMessages", published))
	}
}
