package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

func Init() {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	log = l
}

func l() *zap.Logger {
	if log == nil {
		Init()
	}
	return log
}

func Debug(msg string, fields ...zap.Field) {
	l().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	l().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	l().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	l().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	l().Fatal(msg, fields...)
}

func Infof(format string, args ...interface{}) {
	l().Sugar().Infof(format, args...)
}

func Errorf(format string, args ...interface{}) {
	l().Sugar().Errorf(format, args...)
}

func Sync() {
	_ = l().Sync()
}
