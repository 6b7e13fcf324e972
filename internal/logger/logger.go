// Package logger writes plain user-facing lines. It is safe for concurrent
// use so watch callbacks can log while a compile is in flight.
package logger

import (
	"fmt"
	"io"
	"sync"
)

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

// Log is suppressed by quiet unless forceShow or debug is set.
func (logger *Logger) Log(message string, forceShow bool) {
	if logger.quiet && !forceShow && !logger.debug {
		return
	}
	logger.println(logger.out, message)
}

func (logger *Logger) Logf(forceShow bool, format string, args ...any) {
	logger.Log(fmt.Sprintf(format, args...), forceShow)
}

func (logger *Logger) Debug(message string) {
	if !logger.debug {
		return
	}
	logger.println(logger.out, message)
}

func (logger *Logger) Debugf(format string, args ...any) {
	if !logger.debug {
		return
	}
	logger.println(logger.out, fmt.Sprintf(format, args...))
}

func (logger *Logger) Error(message string) {
	logger.println(logger.err, message)
}

// Errorf does not append a newline.
func (logger *Logger) Errorf(format string, args ...any) {
	logger.mu.Lock()
	defer logger.mu.Unlock()
	if _, err := fmt.Fprintf(logger.err, format, args...); err != nil {
		return
	}
}

func (logger *Logger) DebugEnabled() bool {
	return logger.debug
}

func (logger *Logger) println(writer io.Writer, message string) {
	logger.mu.Lock()
	defer logger.mu.Unlock()
	if _, err := fmt.Fprintln(writer, message); err != nil {
		return
	}
}
