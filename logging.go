package celsql

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap.Logger the way cmd/cmd.go's newLogger does: a
// JSON encoder for production, a color console encoder otherwise.
// The translation kernel itself never logs (spec §5: no I/O on the critical
// path) — this exists only for cmd/celsql to configure its own logging.
func NewLogger(production bool) *zap.Logger {
	return newLoggerWithOutput(production, os.Stdout)
}

// NewLoggerAtLevel parses the CLI's --log-level/log_level value and builds
// a logger at that level, defaulting to info on an unrecognized value
// rather than failing startup over a cosmetic setting. warn and error
// levels switch to the JSON encoder, favoring machine-readable logs once
// verbosity drops.
func NewLoggerAtLevel(level string) *zap.Logger {
	lvl := zap.InfoLevel
	_ = lvl.UnmarshalText([]byte(level))
	production := lvl >= zap.WarnLevel
	l := newLoggerWithOutput(production, os.Stdout)
	return l.WithOptions(zap.IncreaseLevel(lvl))
}

func newLoggerWithOutput(production bool, output zapcore.WriteSyncer) *zap.Logger {
	econf := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	var core zapcore.Core
	if production {
		core = zapcore.NewCore(zapcore.NewJSONEncoder(econf), output, zap.DebugLevel)
	} else {
		econf.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(econf), output, zap.DebugLevel)
	}
	return zap.New(core)
}
