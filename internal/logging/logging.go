package logging

import (
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog with helpers for the pipeline's recurring log shapes.
type Logger struct {
	*slog.Logger
}

// New creates a JSON logger on stderr so report output on stdout stays clean.
func New(verbose bool) *Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

// RequestLogger logs one served HTTP request.
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("http request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// ReportLogger logs one finished report run.
func (l *Logger) ReportLogger(project, kind string, rows, skipped int, duration time.Duration) {
	l.Info("report generated",
		"project", project,
		"kind", kind,
		"rows", rows,
		"skipped", skipped,
		"duration_ms", duration.Milliseconds(),
	)
}

// CacheLogger logs fetch-cache effectiveness after a run.
func (l *Logger) CacheLogger(stats map[string]int) {
	l.Debug("fetch cache",
		"hits", stats["hits"],
		"misses", stats["misses"],
		"items", stats["items"],
	)
}
