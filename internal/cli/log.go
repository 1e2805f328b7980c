// Package cli implements the region-augment command-line interface.
//
// # Commands
//
//   - extend: derive flipped, filtered and rotated variants and write new_annotations.json
//   - preview: draw the regions of every record over its image into a directory
//   - review: ask a vision model whether the drawn regions sit on their objects
//   - config: write or show the configuration
//
// # Logging
//
// Progress goes to stdout, per-record failures to stderr. Both use
// charmbracelet/log and switch to debug level with --verbose (-v). The
// loggers are passed to commands through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// loggers holds the progress and the error channel
type loggers struct {
	out *log.Logger
	err *log.Logger
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with keyvals and the elapsed time since the progress was created
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "took", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

type ctxKey int

const loggersKey ctxKey = 0

func withLoggers(ctx context.Context, l loggers) context.Context {
	return context.WithValue(ctx, loggersKey, l)
}

// loggersFromContext retrieves the loggers from ctx.
// If none are attached, both channels use log.Default().
func loggersFromContext(ctx context.Context) loggers {
	if l, ok := ctx.Value(loggersKey).(loggers); ok {
		return l
	}
	return loggers{out: log.Default(), err: log.Default()}
}
