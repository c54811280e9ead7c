package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config selects level and output shape
type Config struct {
	Level   Level
	Format  string
	NoColor bool
	App     string
}

// DefaultConfig logs info and above to a console writer
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatConsole,
		App:    "dataflow",
	}
}

// ZerologAdapter implements Logger on top of zerolog
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerolog builds a zerolog-backed Logger writing to w
func NewZerolog(w io.Writer, cfg Config) *ZerologAdapter {
	out := w
	if cfg.Format != FormatJSON {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.NoColor,
		}
	}

	ctx := zerolog.New(out).Level(zerologLevel(cfg.Level)).With().Timestamp()
	if cfg.App != "" {
		ctx = ctx.Str("app", cfg.App)
	}
	return &ZerologAdapter{logger: ctx.Logger()}
}

// NewZerologAdapter wraps an existing zerolog.Logger
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// Zerolog exposes the underlying logger
func (z *ZerologAdapter) Zerolog() zerolog.Logger {
	return z.logger
}

func (z *ZerologAdapter) Debug(msg string, args ...any) { fields(z.logger.Debug(), args).Msg(msg) }

func (z *ZerologAdapter) Info(msg string, args ...any) { fields(z.logger.Info(), args).Msg(msg) }

func (z *ZerologAdapter) Warn(msg string, args ...any) { fields(z.logger.Warn(), args).Msg(msg) }

func (z *ZerologAdapter) Error(msg string, args ...any) { fields(z.logger.Error(), args).Msg(msg) }

// fields copies slog-style key/value pairs onto e. A nil event (level
// disabled) passes through untouched.
func fields(e *zerolog.Event, args []any) *zerolog.Event {
	if e == nil {
		return nil
	}
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		switch v := args[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case fmt.Stringer:
			e = e.Stringer(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	if len(args)%2 == 1 {
		e = e.Interface("!BADKEY", args[len(args)-1])
	}
	return e
}

func zerologLevel(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelDisabled:
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
