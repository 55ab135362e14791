package global

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

func GetLogger() *zap.Logger {
	loggerOnce.Do(func() {
		cfg := GetEnvCfg()
		logLevel := IfOr(cfg.Test, "debug", cfg.Log.Level)

		config := zap.NewProductionEncoderConfig()
		if cfg.Test {
			config = zap.NewDevelopmentEncoderConfig()
		}
		config.EncodeTime = zapcore.ISO8601TimeEncoder

		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(config), zapcore.AddSync(os.Stdout),
			logLevelFromFlag(strings.ToLower(logLevel)),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	})
	return logger
}

func logLevelFromFlag(levelString string) zapcore.LevelEnabler {
	switch levelString {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	case "dpanic":
		return zap.DPanicLevel
	case "panic":
		return zap.PanicLevel
	default:
		return zap.InfoLevel
	}
}
