package report

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"ghasreport/internal/config"
	apperrors "ghasreport/internal/errors"
	"ghasreport/internal/types"
)

// Mode selects which report a run produces.
type Mode string

const (
	ModeCounts         Mode = "alert_count"
	ModeCodeScanning   Mode = "code_scan"
	ModeSecretScanning Mode = "secret_scan"
	ModeDependabot     Mode = "dependabot_scan"
)

// Category returns the single alert category of a detail mode. Counts mode
// spans all categories and reports false.
func (m Mode) Category() (types.AlertCategory, bool) {
	switch m {
	case ModeCodeScanning:
		return types.CodeScanning, true
	case ModeSecretScanning:
		return types.SecretScanning, true
	case ModeDependabot:
		return types.Dependabot, true
	default:
		return "", false
	}
}

// ParseMode maps a user-facing report kind onto a Mode.
func ParseMode(kind string) (Mode, error) {
	switch Mode(kind) {
	case ModeCounts, ModeCodeScanning, ModeSecretScanning, ModeDependabot:
		return Mode(kind), nil
	default:
		return "", fmt.Errorf("unknown report kind %q", kind)
	}
}

// Fetcher retrieves the open alerts of one category for one target.
type Fetcher interface {
	ListAlerts(ctx context.Context, category types.AlertCategory, target types.Target) ([]types.RawAlert, error)
}

// RunRecorder persists one line of run history. Recording failures never fail
// a run.
type RunRecorder interface {
	RecordRun(ctx context.Context, project, kind string, rows, skipped int, duration time.Duration) error
}

// Runner drives Resolver × Fetcher × Normalizer across a project's targets.
type Runner struct {
	fetcher  Fetcher
	logger   *slog.Logger
	workers  int
	recorder RunRecorder
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds the number of targets fetched concurrently.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithRecorder attaches a run-history recorder.
func WithRecorder(rec RunRecorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// NewRunner creates a Runner over the given fetcher.
func NewRunner(fetcher Fetcher, opts ...Option) *Runner {
	r := &Runner{
		fetcher: fetcher,
		logger:  slog.Default(),
		workers: 4,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run produces one report for one project. Targets are fetched by a bounded
// worker pool; results are stitched back together in target-resolution order.
// A recoverable failure drops only its target and is logged; an authentication
// failure cancels all in-flight work and fails the run.
func (r *Runner) Run(ctx context.Context, projectName string, project config.Project, mode Mode) (*types.ProjectReport, error) {
	started := time.Now()
	targets := ResolveTargets(project)

	rowsByTarget := make([][]types.Row, len(targets))
	skippedByTarget := make([]int, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, target := range targets {
		g.Go(func() error {
			// A fatal failure cancels the group; queued targets must not fetch.
			if gctx.Err() != nil {
				return nil
			}
			rows, skippedAlerts, err := r.collectTarget(gctx, target, mode)
			if err != nil {
				if apperrors.IsFatal(err) {
					return err
				}
				r.logger.Warn("target skipped",
					"project", projectName,
					"target", target.Slug(),
					"target_kind", target.Kind,
					"error", err)
				skippedByTarget[i] = 1
				return nil
			}
			rowsByTarget[i] = rows
			skippedByTarget[i] = skippedAlerts
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &types.ProjectReport{
		Project: projectName,
		Kind:    string(mode),
		Header:  headerFor(mode),
	}
	for i := range targets {
		rep.Rows = append(rep.Rows, rowsByTarget[i]...)
		rep.Skipped += skippedByTarget[i]
	}

	r.record(ctx, projectName, mode, rep, time.Since(started))
	return rep, nil
}

// collectTarget gathers the rows one target contributes. The returned error is
// already tagged with the failing category.
func (r *Runner) collectTarget(ctx context.Context, target types.Target, mode Mode) ([]types.Row, int, error) {
	if mode == ModeCounts {
		row, err := r.countRow(ctx, target)
		if err != nil {
			return nil, 0, err
		}
		return []types.Row{row}, 0, nil
	}

	category, ok := mode.Category()
	if !ok {
		return nil, 0, fmt.Errorf("mode %q has no category", mode)
	}

	alerts, err := r.fetcher.ListAlerts(ctx, category, target)
	if err != nil {
		return nil, 0, fmt.Errorf("%s alerts: %w", category, err)
	}

	rows := make([]types.Row, 0, len(alerts))
	skipped := 0
	for _, alert := range alerts {
		row, err := Normalize(category, target, alert)
		if err != nil {
			r.logger.Warn("alert skipped",
				"target", target.Slug(),
				"category", category,
				"error", err)
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

// countRow builds the 5-column count row for one target. Organization targets
// carry the sentinel in the repository column and vice versa.
func (r *Runner) countRow(ctx context.Context, target types.Target) (types.Row, error) {
	org, repo := types.Sentinel, target.Name
	if target.Kind == types.KindOrganization {
		org, repo = target.Name, types.Sentinel
	}

	row := types.Row{org, repo}
	for _, category := range types.Categories {
		alerts, err := r.fetcher.ListAlerts(ctx, category, target)
		if err != nil {
			return nil, fmt.Errorf("%s alerts: %w", category, err)
		}
		row = append(row, strconv.Itoa(len(alerts)))
	}
	return row, nil
}

func headerFor(mode Mode) types.Row {
	if category, ok := mode.Category(); ok {
		return Header(category)
	}
	return CountHeader
}

func (r *Runner) record(ctx context.Context, projectName string, mode Mode, rep *types.ProjectReport, duration time.Duration) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordRun(ctx, projectName, string(mode), len(rep.Rows), rep.Skipped, duration); err != nil {
		r.logger.Warn("run history not recorded", "project", projectName, "error", err)
	}
}
