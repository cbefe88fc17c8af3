// Package logging builds the structured logger shared by the commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New creates a [log.Logger] writing to w (default [os.Stderr]) with
// timestamps enabled.
func New(w io.Writer, level string) (*log.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	parsed, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := log.NewWithOptions(w, log.Options{ReportTimestamp: true, Level: parsed})
	return logger, nil
}

// Discard returns a logger that drops every entry.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

func ParseLevel(value string) (log.Level, error) {
	if strings.TrimSpace(value) == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q (supported: debug|info|warn|error)", value)
	}
	return level, nil
}
