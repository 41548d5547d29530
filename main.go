package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/icodeforyou/spotwindow-go/config"
	"github.com/icodeforyou/spotwindow-go/database"
	"github.com/icodeforyou/spotwindow-go/hours"
	"github.com/icodeforyou/spotwindow-go/logging"
	"github.com/icodeforyou/spotwindow-go/providers"
	"github.com/icodeforyou/spotwindow-go/publisher"
	"github.com/icodeforyou/spotwindow-go/task"
	"github.com/icodeforyou/spotwindow-go/www"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	if err := cnfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}

	if err := hours.SetDisplayTimezone(cnfg.Display.GetTimezone()); err != nil {
		panic(fmt.Sprintf("failed to set display timezone: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleLevel := new(slog.LevelVar)
	consoleLevel.Set(cnfg.Logging.GetConsoleLevel())
	consoleHandler := logging.NewConsoleHandler(os.Stdout, consoleLevel, isDevMode())
	logger := slog.New(consoleHandler)
	slog.SetDefault(logger)
	logger.Debug("spotwindow is starting...", slog.String("version", Version))

	var db *database.Database
	if cnfg.Database.Enabled() {
		db, err = database.New(ctx, cnfg.Database.Path)
		if err != nil {
			panic(fmt.Sprintf("failed to connect to database: %v", err))
		}
		defer db.Close()

		logger = slog.New(logging.NewMultiHandler(
			consoleHandler,
			logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel(), cnfg.Logging.GetDbAttrsFormat())))
		slog.SetDefault(logger)

		// Now we can use the logger to log database operations into the database itself
		db.SetLogger(logger.With("module", "database"))
	} else {
		logger.Info("no database path configured, log and refresh history are disabled")
	}

	svc, err := providers.NewService(logger.With("module", "recommend"), cnfg)
	if err != nil {
		panic(fmt.Sprintf("failed to set up price providers: %v", err))
	}

	var pub *publisher.Publisher
	if cnfg.Mqtt.Enabled() && !isDevMode() {
		pub = publisher.New(publisher.Options{
			Host:        cnfg.Mqtt.Host,
			Port:        cnfg.Mqtt.GetPort(),
			Username:    cnfg.Mqtt.Username,
			Password:    cnfg.Mqtt.Password,
			TopicPrefix: cnfg.Mqtt.GetTopicPrefix(),
		})
		if err := pub.Connect(); err != nil {
			panic(fmt.Sprintf("mqtt connection error: %v", err))
		}
		defer pub.Disconnect()
	} else {
		logger.Info("mqtt publishing disabled")
	}

	tasks := task.NewTasks(svc, db, pub, cnfg)
	if isDevMode() {
		logger.Info("dev mode, skipping task scheduling")
	} else {
		tasks.Run()
		defer tasks.Stop()
	}

	config.Watch(logger.With("module", "config"), func(c *config.AppConfig) {
		consoleLevel.Set(c.Logging.GetConsoleLevel())
		if err := hours.SetDisplayTimezone(c.Display.GetTimezone()); err != nil {
			logger.Warn("ignoring display timezone", slog.Any("error", err))
		}
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-ctx.Done():
		case sig := <-sigCh:
			logger.Info("received signal", slog.Any("signal", sig))
			cancel()
		}
	}()

	server := www.NewServer(svc, db, tasks.RefreshTask, cnfg, www.SysInfo{
		Version:   Version,
		StartedAt: time.Now(),
		Zone:      cnfg.EnergyPrice.Area,
		Providers: cnfg.EnergyPrice.GetProviders(),
	})
	server.Run(ctx)
}

func isDevMode() bool {
	return strings.EqualFold(os.Getenv("APP_ENV"), "development")
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}
	time.Sleep(2 * time.Second)
	os.Exit(1)
}
