// Package logging builds the process-wide charmbracelet/log logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Options holds configuration for the process logger.
type Options struct {
	Level  string
	Format string // text, json or logfmt
	Prefix string
}

// New returns a leveled logger writing to stderr.
func New(opts Options) *log.Logger {
	return NewWithWriter(os.Stderr, opts)
}

// NewWithWriter is New with an explicit destination, used by tests and the TUI.
func NewWithWriter(w io.Writer, opts Options) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           parseLevel(opts.Level),
		Formatter:       parseFormatter(opts.Format),
		ReportTimestamp: true,
		Prefix:          opts.Prefix,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

func parseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func parseFormatter(s string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
