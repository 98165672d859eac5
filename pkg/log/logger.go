package log

import "time"

// Logger is the logging surface handed to every wavecap component.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one key/value pair attached to a log line.
// Adapters switch on the dynamic type of Value.
type Field struct {
	Key   string
	Value any
}

func String(key, v string) Field                 { return Field{Key: key, Value: v} }
func Strings(key string, v []string) Field       { return Field{Key: key, Value: v} }
func Int(key string, v int) Field                { return Field{Key: key, Value: v} }
func Int64(key string, v int64) Field            { return Field{Key: key, Value: v} }
func Uint64(key string, v uint64) Field          { return Field{Key: key, Value: v} }
func Float64(key string, v float64) Field        { return Field{Key: key, Value: v} }
func Floats(key string, v []float64) Field       { return Field{Key: key, Value: v} }
func Bool(key string, v bool) Field              { return Field{Key: key, Value: v} }
func Duration(key string, v time.Duration) Field { return Field{Key: key, Value: v} }
func Any(key string, v any) Field                { return Field{Key: key, Value: v} }

// Err attaches err under the "error" key.
func Err(err error) Field { return Field{Key: "error", Value: err} }

// With returns a Logger that adds fields to every line written through l.
func With(l Logger, fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	switch b := l.(type) {
	case NoopLogger, *NoopLogger:
		return l
	case *ZerologAdapter:
		return b.with(fields)
	case *fieldLogger:
		return &fieldLogger{base: b.base, fields: join(b.fields, fields)}
	}
	return &fieldLogger{base: l, fields: fields}
}

// fieldLogger prefixes fields for loggers without native context support.
type fieldLogger struct {
	base   Logger
	fields []Field
}

func (l *fieldLogger) Debug(msg string, fields ...Field) { l.base.Debug(msg, join(l.fields, fields)...) }
func (l *fieldLogger) Info(msg string, fields ...Field)  { l.base.Info(msg, join(l.fields, fields)...) }
func (l *fieldLogger) Warn(msg string, fields ...Field)  { l.base.Warn(msg, join(l.fields, fields)...) }
func (l *fieldLogger) Error(msg string, fields ...Field) { l.base.Error(msg, join(l.fields, fields)...) }

func join(a, b []Field) []Field {
	out := make([]Field, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}
