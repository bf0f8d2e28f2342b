package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// levelFor picks the log level: --verbose wins, then the config file's
// [log] level, then info.
func levelFor(verbose bool, configured string) (log.Level, error) {
	if verbose {
		return log.DebugLevel, nil
	}
	if strings.TrimSpace(configured) == "" {
		return log.InfoLevel, nil
	}
	return log.ParseLevel(configured)
}
