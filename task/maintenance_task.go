package task

import (
	"context"
	"log/slog"
	"time"
)

type MaintenanceStore interface {
	PurgeLog(ctx context.Context, maxLogEntries int) error
	PurgeRefreshes(ctx context.Context, retentionDays int) error
	Backup(ctx context.Context) (string, error)
	PurgeBackups(retentionDays int) error
}

type MaintenanceSettings struct {
	MaxLogEntries       int
	RetentionDays       int
	BackupRetentionDays int
}

func NewMaintenanceTask(logger *slog.Logger, db MaintenanceStore, settings MaintenanceSettings) func() {
	return func() {
		logger.Debug("running maintenance task...")

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()

		if _, err := db.Backup(ctx); err != nil {
			logger.Error("database backup error", slog.Any("error", err))
		}

		if err := db.PurgeBackups(settings.BackupRetentionDays); err != nil {
			logger.Error("backup maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeLog(ctx, settings.MaxLogEntries); err != nil {
			logger.Error("log maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeRefreshes(ctx, settings.RetentionDays); err != nil {
			logger.Error("refresh maintenance error", slog.Any("error", err))
		}

		logger.Info("maintenance task done")
	}
}
