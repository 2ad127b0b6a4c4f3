package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Logger defines a minimal, printf-style logging contract.
//
// Packages depend on this interface rather than a concrete logger so tests can
// substitute a no-op or capture output.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

var (
	defaultLevel Level = LevelInfo
	defaultOut   io.Writer
	defaultMu    sync.RWMutex
)

// SetDefaultLevel sets the minimum level for loggers created afterwards and
// for already-created component loggers.
func SetDefaultLevel(level Level) {
	defaultMu.Lock()
	defaultLevel = level
	defaultMu.Unlock()
}

// SetDefaultOutput redirects component logger output. Used by tests.
func SetDefaultOutput(w io.Writer) {
	defaultMu.Lock()
	defaultOut = w
	defaultMu.Unlock()
}

// componentLogger writes leveled, component-tagged lines to stderr.
type componentLogger struct {
	component string
	logger    *log.Logger
}

// NewComponentLogger returns the default application logger scoped to a component.
func NewComponentLogger(component string) Logger {
	defaultMu.RLock()
	out := defaultOut
	defaultMu.RUnlock()
	if out == nil {
		out = os.Stderr
	}
	return &componentLogger{
		component: component,
		logger:    log.New(out, "", log.LstdFlags),
	}
}

func (l *componentLogger) logf(level Level, format string, args ...any) {
	defaultMu.RLock()
	min := defaultLevel
	defaultMu.RUnlock()
	if level < min {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.component != "" {
		l.logger.Printf("[%s] [%s] %s", level, l.component, msg)
		return
	}
	l.logger.Printf("[%s] %s", level, msg)
}

func (l *componentLogger) Debug(format string, args ...any) {
	l.logf(LevelDebug, format, args...)
}

func (l *componentLogger) Info(format string, args ...any) {
	l.logf(LevelInfo, format, args...)
}

func (l *componentLogger) Warn(format string, args ...any) {
	l.logf(LevelWarn, format, args...)
}

func (l *componentLogger) Error(format string, args ...any) {
	l.logf(LevelError, format, args...)
}
