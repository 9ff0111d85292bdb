// Package log exposes a process-wide structured logger backed by zap.
// Init must be called once at startup; every other function is safe to
// call from any goroutine afterwards.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.SugaredLogger

func init() {
	// Default logger so packages can log before Init runs (tests, mainly).
	Init("info", "stdout")
}

// Init configures the global logger with the given level (debug, info,
// warn, error) and output (stdout or stderr).
func Init(level, output string) {
	atomicLevel := zap.NewAtomicLevel()
	switch level {
	case "debug":
		atomicLevel.SetLevel(zapcore.DebugLevel)
	case "info":
		atomicLevel.SetLevel(zapcore.InfoLevel)
	case "warn":
		atomicLevel.SetLevel(zapcore.WarnLevel)
	case "error":
		atomicLevel.SetLevel(zapcore.ErrorLevel)
	default:
		atomicLevel.SetLevel(zapcore.InfoLevel)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"

	var writeSyncer zapcore.WriteSyncer
	switch output {
	case "stderr":
		writeSyncer = zapcore.AddSync(os.Stderr)
	default:
		writeSyncer = zapcore.AddSync(os.Stdout)
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), writeSyncer, atomicLevel)
	logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// Debugf logs a formatted message at debug level.
func Debugf(template string, args ...any) { logger.Debugf(template, args...) }

// Debugw logs a message with key-value pairs at debug level.
func Debugw(msg string, keysAndValues ...any) { logger.Debugw(msg, keysAndValues...) }

// Infof logs a formatted message at info level.
func Infof(template string, args ...any) { logger.Infof(template, args...) }

// Infow logs a message with key-value pairs at info level.
func Infow(msg string, keysAndValues ...any) { logger.Infow(msg, keysAndValues...) }

// Warnf logs a formatted message at warn level.
func Warnf(template string, args ...any) { logger.Warnf(template, args...) }

// Warnw logs a message with key-value pairs at warn level.
func Warnw(msg string, keysAndValues ...any) { logger.Warnw(msg, keysAndValues...) }

// Errorf logs a formatted message at error level.
func Errorf(template string, args ...any) { logger.Errorf(template, args...) }

// Errorw logs a message with key-value pairs at error level.
func Errorw(msg string, keysAndValues ...any) { logger.Errorw(msg, keysAndValues...) }

// Fatalf logs a formatted message and exits the process.
func Fatalf(template string, args ...any) { logger.Fatalf(template, args...) }

// Fatal logs the arguments and exits the process.
func Fatal(args ...any) { logger.Fatal(args...) }
