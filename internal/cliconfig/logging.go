package cliconfig

import (
	"io"

	"github.com/wavecap/wavecap/pkg/log"
)

// NewLogger builds the process logger from the configured level and format.
// An unknown level falls back to info.
func NewLogger(out io.Writer, cfg Config) log.Logger {
	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl, _ = log.ParseLevel("")
	}
	return log.New(out, cfg.LogFormat, lvl)
}
