package task

import (
	"context"
	"log/slog"

	"github.com/icodeforyou/spotwindow-go/config"
	"github.com/icodeforyou/spotwindow-go/database"
	"github.com/icodeforyou/spotwindow-go/publisher"
	"github.com/icodeforyou/spotwindow-go/recommend"
	"github.com/robfig/cron/v3"
)

const (
	publishSpec     = "0 * * * *"
	maintenanceSpec = "30 2 * * *"
)

type Tasks struct {
	cron            *cron.Cron
	cnfg            *config.AppConfig
	logger          *slog.Logger
	RefreshTask     func() error
	PublishTask     func() // nil without MQTT
	MaintenanceTask func() // nil without database
}

// NewTasks wires the scheduled tasks. db and pub may be nil when the
// database or MQTT is not configured.
func NewTasks(
	svc *recommend.Service,
	db *database.Database,
	pub *publisher.Publisher,
	cnfg *config.AppConfig,
) *Tasks {
	logger := slog.Default().With("module", "tasks")
	t := &Tasks{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger))),
		cnfg:   cnfg,
		logger: logger,
	}

	if pub != nil {
		t.PublishTask = NewPublishTask(logger.With(slog.String("task", "publish")), svc, pub,
			cnfg.Recommend.GetDefaultDuration(), cnfg.Recommend.GetDefaultLookAhead())
	}

	var store RefreshStore
	if db != nil {
		store = db
		t.MaintenanceTask = NewMaintenanceTask(logger.With(slog.String("task", "maintenance")), db, MaintenanceSettings{
			MaxLogEntries:       cnfg.Logging.GetDbMaxEntries(),
			RetentionDays:       cnfg.Database.GetDataRetentionDays(),
			BackupRetentionDays: cnfg.Database.GetBackupRetentionDays(),
		})
	}

	t.RefreshTask = NewRefreshTask(logger.With(slog.String("task", "refresh")), svc, store,
		svc.LoadTimeout(), t.PublishTask)

	return t
}

// Run loads prices once and starts the schedule.
func (t *Tasks) Run() {
	if err := t.RefreshTask(); err != nil {
		t.logger.Warn("initial refresh failed, prices are fetched on demand", slog.Any("error", err))
	}

	t.add(t.cnfg.EnergyPrice.GetRunAt(), func() { _ = t.RefreshTask() })
	if t.PublishTask != nil {
		t.add(publishSpec, t.PublishTask)
	}
	if t.MaintenanceTask != nil {
		t.add(maintenanceSpec, t.MaintenanceTask)
	}
	t.cron.Start()
}

func (t *Tasks) add(spec string, fn func()) {
	if _, err := t.cron.AddFunc(spec, fn); err != nil {
		panic(err)
	}
}

func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}
