package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"ghasreport/internal/adapters"
	"ghasreport/internal/cache"
	"ghasreport/internal/config"
	apperrors "ghasreport/internal/errors"
	"ghasreport/internal/history"
	"ghasreport/internal/logging"
	"ghasreport/internal/output"
	"ghasreport/internal/report"
	"ghasreport/internal/server"
)

func main() {
	// Optional .env next to the binary; real env always wins.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "ghas-report",
		Usage: "generate GitHub Advanced Security alert reports",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "ghas_config.json", Usage: "configuration file location"},
			&cli.StringFlag{Name: "reports", Usage: "reports directory (overrides the configured location)"},
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "generate alert count, code scanning, secret scanning, and Dependabot reports"},
			&cli.BoolFlag{Name: "alerts", Aliases: []string{"l"}, Usage: "generate alert count report of all open alerts"},
			&cli.BoolFlag{Name: "codescan", Aliases: []string{"c"}, Usage: "generate code scanning alert report"},
			&cli.BoolFlag{Name: "secretscan", Aliases: []string{"s"}, Usage: "generate secret scanning alert report"},
			&cli.BoolFlag{Name: "dependabot", Aliases: []string{"d"}, Usage: "generate Dependabot alert report"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "csv", Usage: "output format: csv, json, html, or all"},
			&cli.IntFlag{Name: "concurrency", Value: 4, Usage: "number of targets fetched concurrently"},
			&cli.StringFlag{Name: "data-dir", Value: "./data", Usage: "directory for the run-history database"},
			&cli.BoolFlag{Name: "no-history", Usage: "disable run-history recording"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable debug logging"},
		},
		Action: runReports,
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve reports over HTTP instead of writing files",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "listen address"},
				},
				Action: runServe,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func selectedModes(c *cli.Context) []report.Mode {
	if c.Bool("all") {
		return []report.Mode{report.ModeCounts, report.ModeCodeScanning, report.ModeSecretScanning, report.ModeDependabot}
	}
	var modes []report.Mode
	if c.Bool("alerts") {
		modes = append(modes, report.ModeCounts)
	}
	if c.Bool("codescan") {
		modes = append(modes, report.ModeCodeScanning)
	}
	if c.Bool("secretscan") {
		modes = append(modes, report.ModeSecretScanning)
	}
	if c.Bool("dependabot") {
		modes = append(modes, report.ModeDependabot)
	}
	return modes
}

// buildRunner wires config into the fetch pipeline: adapter, in-run fetch
// cache, optional run history, aggregator.
func buildRunner(c *cli.Context, cfg *config.Config, logger *logging.Logger) (*report.Runner, *cache.FetchCache, *history.Store) {
	adapter := adapters.NewGitHubAdapter(cfg.Connection.APIURL, cfg.Connection.APIKey, cfg.Connection.APIVersion)
	fetcher := cache.NewFetchCache(adapter, 15*time.Minute)

	opts := []report.Option{
		report.WithWorkers(c.Int("concurrency")),
		report.WithLogger(logger.Logger),
	}

	var store *history.Store
	if !c.Bool("no-history") {
		var err error
		store, err = history.Open(c.String("data-dir"))
		if err != nil {
			logger.Warn("run history disabled", "error", err)
		} else {
			opts = append(opts, report.WithRecorder(store))
		}
	}

	return report.NewRunner(fetcher, opts...), fetcher, store
}

func runReports(c *cli.Context) error {
	modes := selectedModes(c)
	if len(modes) == 0 {
		return cli.Exit("no report selected: use --all, --alerts, --codescan, --secretscan, or --dependabot", 2)
	}

	formats, err := output.ParseFormats(c.String("format"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	logger := logging.New(c.Bool("verbose"))
	slog.SetDefault(logger.Logger)

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	reportDir := c.String("reports")
	if reportDir == "" {
		reportDir = cfg.Location.Reports
	}
	if reportDir == "" {
		reportDir = time.Now().Format("20060102")
	}

	runner, fetcher, store := buildRunner(c, cfg, logger)
	if store != nil {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	timestamp := time.Now()
	ioFailures := 0

	for _, name := range cfg.ProjectNames() {
		project := cfg.Projects[name]
		for _, mode := range modes {
			runStart := time.Now()
			rep, err := runner.Run(ctx, name, project, mode)
			if err != nil {
				// Only fatal errors propagate out of a run.
				return fmt.Errorf("project %s: %w", name, err)
			}
			logger.ReportLogger(name, rep.Kind, len(rep.Rows), rep.Skipped, time.Since(runStart))

			for _, format := range formats {
				path, err := output.Write(rep, reportDir, format, timestamp)
				if err != nil {
					logger.Error("report not written",
						"project", name, "kind", rep.Kind, "format", format,
						"error", apperrors.ToAppError(err))
					ioFailures++
					continue
				}
				logger.Info("report written",
					"project", name, "kind", rep.Kind, "rows", len(rep.Rows),
					"skipped", rep.Skipped, "path", path)
			}
		}
	}

	logger.CacheLogger(fetcher.Stats())
	logger.Info("run complete", "duration", time.Since(started).Round(time.Millisecond).String())
	if ioFailures > 0 {
		return cli.Exit(fmt.Sprintf("%d report file(s) could not be written", ioFailures), 1)
	}
	return nil
}

func runServe(c *cli.Context) error {
	logger := logging.New(c.Bool("verbose"))
	slog.SetDefault(logger.Logger)

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	runner, _, store := buildRunner(c, cfg, logger)
	if store != nil {
		defer store.Close()
	}

	srv := server.New(runner, cfg, store, logger)
	logger.Info("serving reports", "addr", c.String("addr"))
	return srv.Run(c.String("addr"))
}
