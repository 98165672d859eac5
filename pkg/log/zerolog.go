package log

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output formats accepted by New.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// ParseLevel maps a level name to a zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// ZerologAdapter writes Logger calls to a zerolog.Logger.
type ZerologAdapter struct {
	zl zerolog.Logger
}

// New returns a timestamped logger writing to out. FormatConsole renders
// human-readable lines with RFC3339 times; anything else writes JSON.
func New(out io.Writer, format string, level zerolog.Level) *ZerologAdapter {
	if format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return Wrap(zerolog.New(out).Level(level).With().Timestamp().Logger())
}

// Wrap adapts an existing zerolog.Logger.
func Wrap(zl zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{zl: zl}
}

func (z *ZerologAdapter) Debug(msg string, fields ...Field) { write(z.zl.Debug(), msg, fields) }
func (z *ZerologAdapter) Info(msg string, fields ...Field)  { write(z.zl.Info(), msg, fields) }
func (z *ZerologAdapter) Warn(msg string, fields ...Field)  { write(z.zl.Warn(), msg, fields) }
func (z *ZerologAdapter) Error(msg string, fields ...Field) { write(z.zl.Error(), msg, fields) }

// Zerolog returns the wrapped logger.
func (z *ZerologAdapter) Zerolog() zerolog.Logger {
	return z.zl
}

// with moves fields into the zerolog context so they are encoded once.
func (z *ZerologAdapter) with(fields []Field) *ZerologAdapter {
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			m[f.Key] = err.Error()
			continue
		}
		m[f.Key] = f.Value
	}
	return &ZerologAdapter{zl: z.zl.With().Fields(m).Logger()}
}

// write is a no-op for a nil event, which zerolog returns below the level.
func write(e *zerolog.Event, msg string, fields []Field) {
	if e == nil {
		return
	}
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			e = e.Str(f.Key, v)
		case []string:
			e = e.Strs(f.Key, v)
		case int:
			e = e.Int(f.Key, v)
		case int64:
			e = e.Int64(f.Key, v)
		case uint64:
			e = e.Uint64(f.Key, v)
		case float64:
			e = e.Float64(f.Key, v)
		case []float64:
			e = e.Floats64(f.Key, v)
		case bool:
			e = e.Bool(f.Key, v)
		case time.Duration:
			e = e.Dur(f.Key, v)
		case error:
			e = e.AnErr(f.Key, v)
		case nil:
		default:
			e = e.Interface(f.Key, v)
		}
	}
	e.Msg(msg)
}
