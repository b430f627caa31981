// Package logging builds the server's charmbracelet/log logger.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Paul-frank/todo-tracker-api/internal/config"
)

// New returns a leveled logger writing to w in the configured format.
func New(w io.Writer, cfg config.LogConfig) (*log.Logger, error) {
	level, err := log.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var formatter log.Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = log.TextFormatter
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		Prefix:          "todo-api",
	}), nil
}
