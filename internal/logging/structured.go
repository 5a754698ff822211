// Package logging provides structured JSON logging for roomchat components.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// Configure sets the global destination and minimum level.
func Configure(level Level, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	zerolog.SetGlobalLevel(parseLevel(level))
	base = zerolog.New(w).With().Timestamp().Logger()
}

// ConfigureFile points logging at a file, creating it if needed. The returned
// closer must be called on shutdown.
func ConfigureFile(level Level, path string) (io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	Configure(level, f)
	return f, nil
}

func parseLevel(level Level) zerolog.Level {
	switch Level(strings.ToLower(string(level))) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Logger provides structured logging
type Logger struct {
	component string
	session   string
}

// New creates a new logger for a component. Session context is attached
// with WithSession.
func New(component string) *Logger {
	return &Logger{component: component}
}

// WithSession sets the game session context
func (l *Logger) WithSession(session string) *Logger {
	return &Logger{
		component: l.component,
		session:   session,
	}
}

// log emits a structured log event
func (l *Logger) log(level Level, event string, extra map[string]interface{}, err error, dur time.Duration) {
	zl := current()

	var e *zerolog.Event
	switch level {
	case LevelDebug:
		e = zl.Debug()
	case LevelWarn:
		e = zl.Warn()
	case LevelError:
		e = zl.Error()
	default:
		e = zl.Info()
	}

	e = e.Str("component", l.component)
	if l.session != "" {
		e = e.Str("session", l.session)
	}
	if dur > 0 {
		e = e.Int64("duration_ms", dur.Milliseconds())
	}
	if len(extra) > 0 {
		e = e.Fields(map[string]interface{}{"extra": extra})
	}
	if err != nil {
		e = e.Err(err)
	}
	e.Msg(event)
}

// Debug logs a debug event
func (l *Logger) Debug(event string, extra map[string]interface{}) {
	l.log(LevelDebug, event, extra, nil, 0)
}

// Info logs an info event
func (l *Logger) Info(event string, extra map[string]interface{}) {
	l.log(LevelInfo, event, extra, nil, 0)
}

// Warn logs a warning event
func (l *Logger) Warn(event string, extra map[string]interface{}, err error) {
	l.log(LevelWarn, event, extra, err, 0)
}

// Error logs an error event
func (l *Logger) Error(event string, extra map[string]interface{}, err error) {
	l.log(LevelError, event, extra, err, 0)
}

// TimedEvent logs an event with duration. A non-nil err raises it to error level.
func (l *Logger) TimedEvent(event string, start time.Time, extra map[string]interface{}, err error) {
	level := LevelInfo
	if err != nil {
		level = LevelError
	}
	d := time.Since(start)
	if d <= 0 {
		d = time.Nanosecond
	}
	l.log(level, event, extra, err, d)
}
