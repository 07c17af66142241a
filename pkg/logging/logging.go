// Package logging builds the logger shared by the exporter and the CLI.
package logging

import (
	"io"
	"log"
	"os"

	"github.com/natefinch/lumberjack"
)

// Config selects the log destination. An empty File logs to stderr.
type Config struct {
	File       string
	MaxSize    int `toml:"max_log_size"` // megabytes
	MaxAge     int `toml:"max_log_age"`  // days
	MaxBackups int `toml:"max_backups"`
}

// Flags are the log flags used for every logger built here.
const Flags = log.LstdFlags | log.Lmicroseconds

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing to a rotating file, or to stderr when no
// file is configured. The closer releases the file.
func New(cfg Config, prefix string) (*log.Logger, io.Closer) {
	if cfg.File == "" {
		return log.New(os.Stderr, prefix, Flags), nopCloser{}
	}
	l := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
	}
	return log.New(l, prefix, Flags), l
}
