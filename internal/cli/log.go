// Package cli implements the flowboard command-line interface.
//
// Every board command opens the configured store, restores the board (or
// starts from the default layout), runs, and flushes the board back before
// it exits. The store, board name and backend come from the config file,
// FLOWBOARD_* environment variables and the --config, --board and --store
// flags, in increasing priority.
//
// # Commands
//
//   - show, defs: inspect the board and the module definitions
//   - add, rm, front, move, enable, disable, set: edit instances
//   - link, unlink: edit links
//   - arrange, template save, export, import: layout and exchange
//   - clear, reset, restore: start over
//   - summarize, process, streams, image: talk to the processing backend
//   - tui, serve, mcp: interactive, HTTP and MCP front ends
//   - store path, store clear: manage persisted state
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// is shared through the [CLI] value.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "Processed 4 nodes (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
