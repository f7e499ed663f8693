package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar *zap.SugaredLogger

// Init builds the process logger. Debug mode switches to the console
// encoder with DEBUG level; production logs JSON at INFO.
func Init(debug bool) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// last resort: a no-frills logger to stderr
		l = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stderr),
			zapcore.InfoLevel,
		))
	}
	sugar = l.Sugar()
}

// L returns the process logger, initializing a default one if Init was
// never called (tests rely on this).
func L() *zap.SugaredLogger {
	if sugar == nil {
		Init(true)
	}
	return sugar
}

func Infof(format string, args ...interface{})  { L().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { L().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { L().Errorf(format, args...) }
func Debugf(format string, args ...interface{}) { L().Debugf(format, args...) }

func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
