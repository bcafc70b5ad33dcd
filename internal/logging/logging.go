package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lazypower/companion/internal/config"
)

// New builds the root logger. An unknown level falls back to info.
func New(cfg config.LoggingConfig) *log.Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, cfg config.LoggingConfig) *log.Logger {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
}

// For returns a child logger tagged with the component name.
func For(root *log.Logger, component string) *log.Logger {
	return root.With("component", component)
}

// Discard returns a logger that drops everything. Used in tests and as the
// fallback when a component is built without one.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
