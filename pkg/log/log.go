package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var l *logger

func init() {
	level := zapcore.InfoLevel
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		if parsed, err := zapcore.ParseLevel(v); err == nil {
			level = parsed
		}
	}

	encoding := "console" // "json" or "console"
	if v, ok := os.LookupEnv("LOG_ENCODING"); ok {
		encoding = v
	}

	l = newLogger(level, encoding)

	zap.ReplaceGlobals(l.Logger)

	if _, err := zap.RedirectStdLogAt(l.Logger, zapcore.InfoLevel); err != nil {
		panic(err)
	}
}

type logger struct {
	logLevel    zapcore.Level
	logEncoding string

	*zap.Logger
}

func newLogger(logLevel zapcore.Level, encoding string) *logger {
	encoder, err := getEncoder(encoding)
	if err != nil {
		panic(fmt.Sprintf("failed to parse encoder: %v", err))
	}

	// Info and below go to stdout, errors to stderr.
	zapLogger := zap.New(zapcore.NewTee(
		zapcore.NewCore(
			encoder,
			zapcore.Lock(os.Stdout),
			zap.LevelEnablerFunc(func(level zapcore.Level) bool {
				return level >= logLevel && level < zapcore.ErrorLevel
			}),
		),
		zapcore.NewCore(
			encoder,
			zapcore.Lock(os.Stderr),
			zap.LevelEnablerFunc(func(level zapcore.Level) bool {
				return level >= zapcore.ErrorLevel
			}),
		),
	))

	zapLogger = zapLogger.WithOptions(zap.AddCaller(), zap.AddCallerSkip(1))

	return &logger{
		logLevel:    logLevel,
		logEncoding: encoding,
		Logger:      zapLogger,
	}
}

func getEncoder(encoding string) (zapcore.Encoder, error) {
	encoderConfig := zapcore.EncoderConfig{
		MessageKey: "message",

		LevelKey:    "level",
		EncodeLevel: zapcore.CapitalLevelEncoder,

		TimeKey:    "time",
		EncodeTime: zapcore.ISO8601TimeEncoder,

		CallerKey:      "caller",
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}

	switch encoding {
	case "json":
		return zapcore.NewJSONEncoder(encoderConfig), nil
	case "console":
		return zapcore.NewConsoleEncoder(encoderConfig), nil
	default:
		return nil, fmt.Errorf("failed to find encoder: %q", encoding)
	}
}

func Debug(msg string, fields ...zap.Field) { l.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { l.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { l.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { l.Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { l.Fatal(msg, fields...) }
func Panic(msg string, fields ...zap.Field) { l.Panic(msg, fields...) }
func Sync() error {
	return l.Sync()
}
