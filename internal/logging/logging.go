// Package logging builds the leveled loggers used by the remlint commands.
package logging

import (
	"io"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at the named level. Unknown level
// names fall back to info.
func New(w io.Writer, level, prefix string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Formatter:       log.TextFormatter,
		ReportTimestamp: true,
		Prefix:          prefix,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
