package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/icodeforyou/spotwindow-go/config"
	"github.com/icodeforyou/spotwindow-go/entsoe"
	"github.com/icodeforyou/spotwindow-go/hours"
	"github.com/icodeforyou/spotwindow-go/logging"
	"github.com/icodeforyou/spotwindow-go/providers"
	"github.com/icodeforyou/spotwindow-go/recommend"
	"github.com/urfave/cli/v2"
)

var Version = "?.?.?"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "bestwindow",
		Usage:   "print the cheapest upcoming window of day-ahead electricity prices",
		Version: Version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				EnvVars: []string{"SPOTWINDOW_CONFIG"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:    "zone",
				EnvVars: []string{"ENERGY_PRICE_AREA"},
				Usage:   "market zone, overrides energy_price.area",
			},
			&cli.IntFlag{
				Name:    "duration",
				Aliases: []string{"d"},
				Value:   1,
				Usage:   "window length in hours",
			},
			&cli.IntFlag{
				Name:    "lookahead",
				Aliases: []string{"l"},
				Value:   24,
				Usage:   "hours from now in which the window must start",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the recommendation as JSON",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "WARN",
			},
		},
		Action: recommendCommand,
		Commands: []*cli.Command{
			{
				Name:   "zones",
				Usage:  "list the known market zones",
				Action: zonesCommand,
			},
		},
	}
}

func setup(ctx *cli.Context) (*recommend.Service, error) {
	level := new(slog.LevelVar)
	lvl := ctx.String("log-level")
	level.Set(logging.LevelFromString(&lvl))
	logger := slog.New(logging.NewConsoleHandler(os.Stderr, level, false))
	slog.SetDefault(logger)

	cnfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return nil, err
	}
	if zone := ctx.String("zone"); zone != "" {
		cnfg.EnergyPrice.Area = zone
	}
	if err := cnfg.Validate(); err != nil {
		return nil, err
	}
	if err := hours.SetDisplayTimezone(cnfg.Display.GetTimezone()); err != nil {
		return nil, err
	}
	return providers.NewService(logger.With("module", "recommend"), cnfg)
}

func recommendCommand(ctx *cli.Context) error {
	svc, err := setup(ctx)
	if err != nil {
		return err
	}

	rec, err := svc.RecommendBestTime(ctx.Context, ctx.Int("duration"), ctx.Int("lookahead"))
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		enc := json.NewEncoder(ctx.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	_, err = fmt.Fprintf(ctx.App.Writer, "%s\n  zone:    %s (%s)\n  window:  %s - %s\n  average: %.2f c/kWh\n  current: %.2f c/kWh\n",
		rec.Message,
		svc.Zone(), rec.Source,
		hours.FormatTimeInDisplayTimezone(rec.WindowStart),
		hours.FormatTimeInDisplayTimezone(rec.WindowEnd),
		rec.AveragePrice,
		rec.CurrentPrice)
	return err
}

func zonesCommand(ctx *cli.Context) error {
	_, err := fmt.Fprintln(ctx.App.Writer, strings.Join(entsoe.Zones(), "\n"))
	return err
}
