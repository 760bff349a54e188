package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	zapEncoder = zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "timestamp",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	zapConfig = zap.Config{
		Level:       zap.NewAtomicLevelAt(level()),
		Development: false,
		// Logs go to stderr so they never interleave with the
		// interactive tables and prompts on stdout.
		Encoding:         "json",
		EncoderConfig:    zapEncoder,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logInstance, _ = zapConfig.Build(zap.AddCaller(), zap.Fields(zap.String("app", "laconicman")))
)

func level() zapcore.Level {
	if os.Getenv("LACONICMAN_DEBUG") != "" {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

func GetInstance() *zap.Logger {
	return logInstance
}
