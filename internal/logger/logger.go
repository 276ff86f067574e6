// Package logger builds the console logger shared by the commands.
package logger

import (
	"io"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w. Verbose enables debug output.
func New(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "scribl",
	})
}

// Discard returns a logger that drops everything. Tests and library
// callers without a logger use it.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
