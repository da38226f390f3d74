package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger defines the pkgindex logging contract.
// Implementations should support standard log levels and be safe for concurrent use.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// ZerologLogger adapts a zerolog.Logger to the pkgindex logging contract.
type ZerologLogger struct {
	logger zerolog.Logger
}

// New creates a ZerologLogger writing to w at the given level.
// Format "console" produces human readable lines; anything else produces JSON.
func New(w io.Writer, level, format string) *ZerologLogger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	return &ZerologLogger{
		logger: zerolog.New(w).Level(lvl).With().Timestamp().Logger(),
	}
}

// Nop returns a logger that discards everything.
func Nop() *ZerologLogger {
	return &ZerologLogger{logger: zerolog.Nop()}
}

func (l *ZerologLogger) Info(msg string, args ...any) {
	l.logger.Info().Msgf(msg, args...)
}

func (l *ZerologLogger) Warn(msg string, args ...any) {
	l.logger.Warn().Msgf(msg, args...)
}

func (l *ZerologLogger) Error(msg string, args ...any) {
	l.logger.Error().Msgf(msg, args...)
}

func (l *ZerologLogger) Debug(msg string, args ...any) {
	l.logger.Debug().Msgf(msg, args...)
}

// Default provides a global default logger writing JSON to stderr.
var Default Logger = New(os.Stderr, "info", "json")
