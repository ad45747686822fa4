// Package logging builds the zerolog loggers used by the waypoint binaries.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const filePermission = 0o644

// Options selects where log lines go. Path wins over Writer; with neither set
// the logger writes to stderr.
type Options struct {
	Path    string
	Writer  io.Writer
	Level   string
	Console bool
}

// Output is a configured logger plus the file backing it, if any.
type Output struct {
	Logger zerolog.Logger
	File   *os.File
}

// New opens the destination described by opts and returns a timestamped
// logger for it.
func New(opts Options) (*Output, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := &Output{}
	var w io.Writer = os.Stderr
	if opts.Writer != nil {
		w = opts.Writer
	}
	if path := strings.TrimSpace(opts.Path); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePermission)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out.File = file
		w = zerolog.SyncWriter(file)
	}
	if opts.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	out.Logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
	return out, nil
}

// Close releases the log file.
func (o *Output) Close() error {
	if o == nil || o.File == nil {
		return nil
	}
	return o.File.Close()
}

// ParseLevel maps a config string to a zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	switch trimmed {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(trimmed)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log level %q: %w", s, err)
	}
	return level, nil
}
