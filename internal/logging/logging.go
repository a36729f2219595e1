// Package logging builds the prefixed stderr loggers used across
// spotd, with optional rotating file output.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where log output goes.
type Options struct {
	// File enables rotating file logging when non-empty.
	File string

	// MaxSizeMB and MaxBackups bound the rotated files. Zero values
	// fall back to lumberjack defaults.
	MaxSizeMB  int
	MaxBackups int

	// Quiet drops stderr output, leaving only the file (if any).
	Quiet bool
}

// New returns a logger writing "[prefix] " lines to stderr.
func New(prefix string) *log.Logger {
	return log.New(os.Stderr, "["+prefix+"] ", log.LstdFlags)
}

// NewWithOptions returns a prefixed logger honoring file rotation and
// quiet settings.
func NewWithOptions(prefix string, opts Options) *log.Logger {
	var writers []io.Writer
	if !opts.Quiet {
		writers = append(writers, os.Stderr)
	}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		})
	}
	if len(writers) == 0 {
		return log.New(io.Discard, "", 0)
	}
	return log.New(io.MultiWriter(writers...), "["+prefix+"] ", log.LstdFlags)
}
