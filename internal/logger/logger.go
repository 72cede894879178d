package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func parseLevel(logLevel string) zapcore.Level {
	switch logLevel {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// InitLogger replaces the global zap logger. The returned func flushes it.
func InitLogger(logLevel string) (func(), error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level.SetLevel(parseLevel(logLevel))
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	lgr, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("构建日志器失败: %w", err)
	}

	undo := zap.ReplaceGlobals(lgr)

	return func() {
		_ = lgr.Sync()
		undo()
	}, nil
}
