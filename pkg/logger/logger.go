package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the package logger for the given environment.
// development gets a console writer at debug level, everything else JSON at info.
// LOG_LEVEL overrides the level in both cases.
func Init(environment string) {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	var w io.Writer = os.Stdout
	if strings.EqualFold(environment, "development") {
		level = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	if lv := os.Getenv("LOG_LEVEL"); lv != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(lv)); err == nil {
			level = parsed
		}
	}

	log = zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// SetOutput redirects the logger, keeping the current level.
func SetOutput(w io.Writer) {
	log = log.Output(w)
}

// SetLevel changes the minimum level. Unknown levels are ignored.
func SetLevel(level string) {
	if parsed, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
		log = log.Level(parsed)
	}
}

func Debug(msg string, args ...any) { emit(log.Debug(), msg, args) }
func Info(msg string, args ...any)  { emit(log.Info(), msg, args) }
func Warn(msg string, args ...any)  { emit(log.Warn(), msg, args) }
func Error(msg string, args ...any) { emit(log.Error(), msg, args) }

// Fatal logs and exits the process.
func Fatal(msg string, args ...any) { emit(log.Fatal(), msg, args) }

// emit accepts alternating key/value pairs. A value without a key
// (logger.Error("failed", err)) is still recorded.
func emit(e *zerolog.Event, msg string, args []any) {
	if e == nil {
		return
	}

	for i := 0; i < len(args); i++ {
		key, ok := args[i].(string)
		if !ok || i+1 >= len(args) {
			if err, isErr := args[i].(error); isErr {
				e = e.Err(err)
			} else {
				e = e.Interface(fmt.Sprintf("arg%d", i), args[i])
			}
			continue
		}

		e = field(e, key, args[i+1])
		i++
	}

	e.Msg(msg)
}

func field(e *zerolog.Event, key string, v any) *zerolog.Event {
	switch val := v.(type) {
	case error:
		return e.AnErr(key, val)
	case string:
		return e.Str(key, val)
	case int:
		return e.Int(key, val)
	case int64:
		return e.Int64(key, val)
	case float64:
		return e.Float64(key, val)
	case bool:
		return e.Bool(key, val)
	case time.Duration:
		return e.Dur(key, val)
	case time.Time:
		return e.Time(key, val)
	default:
		return e.Interface(key, val)
	}
}
