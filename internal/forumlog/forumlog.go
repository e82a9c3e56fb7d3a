// Package forumlog is a gated diagnostic logger, generalizing the
// teacher's internal/debug package: an env/config-gated Logf/Debugf pair
// plus an always-on Errorf, writing to a lumberjack-rotated file instead of
// stderr.
package forumlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config mirrors the fields a deployment tunes for the log file.
type Config struct {
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Verbose    bool // gates Logf/Debugf; Errorf always writes
}

// Logger writes leveled, timestamped lines to a rotating file. The zero
// value is usable and discards everything but Errorf, which falls back to
// stderr — matching the teacher's "silent fail, never interrupt the
// caller" posture for logging itself.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// New opens (creating parent directories as needed) the rotating log file
// described by cfg.
func New(cfg Config) *Logger {
	if cfg.FilePath == "" {
		return &Logger{out: os.Stderr, verbose: cfg.Verbose}
	}
	return &Logger{
		out: &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		},
		verbose: cfg.Verbose,
	}
}

// Errorf always writes, prefixed ERROR. The event-log writer and importer
// use this to report failures they otherwise swallow (§7: "a failure to
// append is logged and the in-memory state still advances").
func (l *Logger) Errorf(format string, args ...any) {
	l.writeLine("ERROR", format, args...)
}

// Logf writes only when the logger was configured verbose, prefixed INFO.
func (l *Logger) Logf(format string, args ...any) {
	if l == nil || !l.verbose {
		return
	}
	l.writeLine("INFO", format, args...)
}

// Debugf writes only when verbose, prefixed DEBUG.
func (l *Logger) Debugf(format string, args ...any) {
	if l == nil || !l.verbose {
		return
	}
	l.writeLine("DEBUG", format, args...)
}

func (l *Logger) writeLine(level, format string, args ...any) {
	if l == nil {
		return
	}
	line := fmt.Sprintf("%s %s %s\n", time.Now().UTC().Format(time.RFC3339), level, fmt.Sprintf(format, args...))
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.out
	if out == nil {
		out = os.Stderr
	}
	out.Write([]byte(line))
}
