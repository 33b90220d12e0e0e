package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Level represents log level
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

var levels = map[Level]zerolog.Level{
	DebugLevel: zerolog.DebugLevel,
	InfoLevel:  zerolog.InfoLevel,
	WarnLevel:  zerolog.WarnLevel,
	ErrorLevel: zerolog.ErrorLevel,
}

// Config holds logging configuration
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init initializes the global logger. JSON output is for production
// (one event per line, machine-parseable); console output pretty-prints
// for local development.
func Init(cfg Config) {
	level, ok := levels[cfg.Level]
	if !ok {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if !cfg.JSONOutput {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}
	Logger = zerolog.New(output).With().Timestamp().Logger()
}

// WithComponent creates a child logger with component field
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithUserID creates a child logger with a uid field.
func WithUserID(userID uint64) zerolog.Logger {
	return Logger.With().Uint64("uid", userID).Logger()
}

// WithCollection creates a child logger with a collection field.
func WithCollection(collection string) zerolog.Logger {
	return Logger.With().Str("collection", collection).Logger()
}

// WithBatchID creates a child logger with a batch field.
func WithBatchID(batchID string) zerolog.Logger {
	return Logger.With().Str("batch", batchID).Logger()
}

// event dispatches msg to the global logger at level, the single place
// Debug/Info/Warn/Error funnel through instead of each repeating the
// same Logger.<Level>().Msg(msg) line.
func event(level zerolog.Level, msg string) {
	Logger.WithLevel(level).Msg(msg)
}

func Debug(msg string) { event(zerolog.DebugLevel, msg) }
func Info(msg string)  { event(zerolog.InfoLevel, msg) }
func Warn(msg string)  { event(zerolog.WarnLevel, msg) }
func Error(msg string) { event(zerolog.ErrorLevel, msg) }

// Errorf logs err against a printf-style message, the shape callers
// actually reach for ("%s: %w"-style context plus the underlying
// error) rather than a single fixed format placeholder.
func Errorf(format string, args ...interface{}) {
	var err error
	for _, a := range args {
		if e, ok := a.(error); ok {
			err = e
			break
		}
	}
	Logger.Error().Err(err).Msg(fmt.Sprintf(format, args...))
}

func Fatal(msg string) {
	Logger.Fatal().Msg(msg)
}
