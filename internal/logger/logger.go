// Package logger writes user-facing output for a single command invocation.
package logger

import (
	"fmt"
	"io"
	"sync"
)

// Logger routes informational lines to out and problems to err.
// Quiet suppresses non-forced informational lines unless debug is on.
// It is safe for concurrent use.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	err   io.Writer
	quiet bool
	debug bool
}

func New(out io.Writer, err io.Writer, quiet bool, debug bool) *Logger {
	return &Logger{
		out:   out,
		err:   err,
		quiet: quiet,
		debug: debug,
	}
}

// Discard returns a logger that drops everything. Handy for tests and library callers.
func Discard() *Logger {
	return New(io.Discard, io.Discard, true, false)
}

func (logger *Logger) Log(message string, forceShow bool) {
	if logger.quiet && !forceShow && !logger.debug {
		return
	}
	logger.writeLine(logger.out, message)
}

func (logger *Logger) Debug(message string) {
	if !logger.debug {
		return
	}
	logger.writeLine(logger.out, message)
}

// Warn reports a recoverable problem. Warnings go to the error stream and ignore quiet.
func (logger *Logger) Warn(message string) {
	logger.writeLine(logger.err, message)
}

func (logger *Logger) Error(message string) {
	logger.writeLine(logger.err, message)
}

func (logger *Logger) Errorf(format string, args ...any) {
	logger.mu.Lock()
	defer logger.mu.Unlock()
	if _, err := fmt.Fprintf(logger.err, format, args...); err != nil {
		return
	}
}

func (logger *Logger) IsQuiet() bool {
	return logger.quiet
}

func (logger *Logger) IsDebug() bool {
	return logger.debug
}

// Out exposes the informational stream for renderers such as tables and progress bars.
func (logger *Logger) Out() io.Writer {
	return logger.out
}

func (logger *Logger) writeLine(writer io.Writer, message string) {
	logger.mu.Lock()
	defer logger.mu.Unlock()
	if _, err := fmt.Fprintln(writer, message); err != nil {
		return
	}
}
