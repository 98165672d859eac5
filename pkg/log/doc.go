// Package log is the structured logging interface used across wavecap.
//
// The CLI builds a zerolog-backed logger with New; library users can pass
// their own Logger implementation to the recorder. Components derive child
// loggers with With so every line carries its origin:
//
//	logger := log.New(os.Stderr, log.FormatConsole, zerolog.InfoLevel)
//	sinkLog := log.With(logger, log.String("sink", "measurements"))
//	sinkLog.Info("file opened", log.String("path", path))
package log
