// Package logging builds the session logger. Output, level and prefix come
// from Options, which the CLI fills from flags and CORESCOPE_LOG_* variables.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

const defaultPrefix = "corescope "

// Options controls where and how much the session logs.
type Options struct {
	Level  string // debug, info, warn, error; empty means info
	Prefix string
	// ToFile sends output to a timestamped file in Dir instead of Writer.
	ToFile bool
	Dir    string
	Writer io.Writer
}

// OptionsFromEnv reads CORESCOPE_LOG_LEVEL, CORESCOPE_LOG_PREFIX and
// CORESCOPE_LOG_TO_FILE. Writer defaults to stderr.
func OptionsFromEnv() Options {
	return Options{
		Level:  os.Getenv("CORESCOPE_LOG_LEVEL"),
		Prefix: os.Getenv("CORESCOPE_LOG_PREFIX"),
		ToFile: os.Getenv("CORESCOPE_LOG_TO_FILE") == "1",
		Writer: os.Stderr,
	}
}

// LoggerCloser is a logger that owns its output.
type LoggerCloser struct {
	*log.Logger
	Path   string // log file, if any
	closer io.Closer
}

// Close closes the log file, if the logger opened one.
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// New builds a logger from opts. A log file that cannot be created falls
// back to opts.Writer; an unknown level is an error.
func New(fs afero.Fs, opts Options) (*LoggerCloser, error) {
	level := log.InfoLevel
	if opts.Level != "" {
		var err error
		if level, err = log.ParseLevel(opts.Level); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}

	w := opts.Writer
	if w == nil {
		w = io.Discard
	}
	lc := &LoggerCloser{}
	if opts.ToFile {
		name := filepath.Join(opts.Dir, fmt.Sprintf("corescope-%s-debug.log", time.Now().Format("20060102-150405")))
		if f, err := fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644); err == nil {
			w, lc.Path, lc.closer = f, name, f
		}
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           level,
		Prefix:          prefix,
	})
	lc.Logger = lg
	return lc, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// IsDebug reports whether CORESCOPE_LOG_LEVEL asks for debug output.
func IsDebug() bool {
	return os.Getenv("CORESCOPE_LOG_LEVEL") == "debug"
}
