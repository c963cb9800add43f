package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	config "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Config"
)

// Logger wraps zerolog.Logger with additional functionality
type Logger struct {
	*zerolog.Logger
}

// NewLogger creates a new logger based on configuration
func NewLogger(cfg *config.LoggingConfig) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		out := os.Stdout
		if cfg.Output == "stderr" {
			out = os.Stderr
		}
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		if cfg.EnableCaller {
			log.Logger = log.Logger.With().Caller().Logger()
		}
	} else {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		log.Logger = log.Output(output).With().Timestamp().Logger()
	}

	return &Logger{&log.Logger}
}

// NewNopLogger returns a logger that discards everything. Used in tests.
func NewNopLogger() *Logger {
	l := zerolog.Nop()
	return &Logger{&l}
}

// WithField adds a field to the logger
func (l *Logger) WithField(key string, value interface{}) *Logger {
	logger := l.Logger.With().Interface(key, value).Logger()
	return &Logger{&logger}
}

// WithError adds an error to the logger
func (l *Logger) WithError(err error) *Logger {
	logger := l.Logger.With().Err(err).Logger()
	return &Logger{&logger}
}

// WithComponent adds a component name to the logger
func (l *Logger) WithComponent(component string) *Logger {
	logger := l.Logger.With().Str("component", component).Logger()
	return &Logger{&logger}
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string) {
	l.Logger.Fatal().Msg(msg)
}

// FatalWithError logs a fatal message with error and exits
func (l *Logger) FatalWithError(err error, msg string) {
	l.Logger.Fatal().Err(err).Msg(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) {
	l.Logger.Error().Msg(msg)
}

// ErrorWithError logs an error message with error
func (l *Logger) ErrorWithError(err error, msg string) {
	l.Logger.Error().Err(err).Msg(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	l.Logger.Warn().Msg(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string) {
	l.Logger.Info().Msg(msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.Logger.Debug().Msg(msg)
}
