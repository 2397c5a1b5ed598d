// Package log provides the logging abstraction used by every wallrotate
// component.
//
// Components never reach for a global logger. The process entry point builds
// one Logger and hands it to each component at construction; the Logger lives
// from process start to process stop.
//
// # Usage
//
// Wrap an existing zerolog logger:
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//
// Or discard everything in tests:
//
//	logger := log.NewNoopLogger()
//
// # Custom Loggers
//
// Any type with Debug, Info, Warn and Error methods taking a message and
// variadic fields satisfies Logger:
//
//	func (l *MyLogger) Info(msg string, fields ...log.Field) { ... }
package log
