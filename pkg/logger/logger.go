// Package logger is the zerolog setup shared by the server and the CLI.
// Components take a *Logger and scope it with WithComponent once, at construction.
package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger embeds zerolog.Logger so call sites use the zerolog event API directly
type Logger struct {
	zerolog.Logger
}

// Config mirrors the logger section of the application config
type Config struct {
	Level string
	// Format "console" is for terminals; anything else writes JSON lines
	Format     string
	TimeFormat string
	// Output defaults to stdout. The CLI sends logs to stderr.
	Output io.Writer
}

// New builds a logger. Timestamp format and error stack marshalling are
// process-wide zerolog settings, so the last call wins.
func New(cfg Config) *Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = cfg.TimeFormat
	if zerolog.TimeFieldFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	var w io.Writer = os.Stdout
	if cfg.Output != nil {
		w = cfg.Output
	}
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: zerolog.TimeFieldFormat}
	}

	zl := zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
	return &Logger{Logger: zl}
}

// NewNop discards everything
func NewNop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{Logger: l.With().Str(key, value).Logger()}
}

// WithComponent tags every entry with the emitting package or service
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithProfileID scopes entries to one household risk profile
func (l *Logger) WithProfileID(profileID string) *Logger {
	return l.with("profile_id", profileID)
}

func (l *Logger) WithFields(fields map[string]any) *Logger {
	return &Logger{Logger: l.With().Fields(fields).Logger()}
}

// ParseLevel accepts zerolog level names plus "warning", "off" and "disabled".
// Empty or unknown input means info.
func ParseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "off", "disabled":
		return zerolog.Disabled
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return parsed
}

var global atomic.Pointer[Logger]

// SetGlobal installs l for code that has no logger handed to it
func SetGlobal(l *Logger) {
	global.Store(l)
}

// Global returns the installed logger, or a discarding one before SetGlobal
func Global() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return NewNop()
}
