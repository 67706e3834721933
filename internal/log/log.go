// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package log provides the structured logger used throughout the core,
// wrapping go.uber.org/zap the way the teacher's utils/logging package
// wraps it: a small Logger interface, a development (console) encoder for
// local runs and a JSON+rotating-file encoder for production.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the subset of *zap.SugaredLogger used by the core.
// core/scheduler (handed one by core/state) takes one of these rather
// than a concrete *zap.Logger, so tests can supply NoOp().
type Logger interface {
	Debugw(msg string, kv ...interface{})
	Infow(msg string, kv ...interface{})
	Warnw(msg string, kv ...interface{})
	Errorw(msg string, kv ...interface{})
	With(kv ...interface{}) Logger
}

type sugared struct {
	*zap.SugaredLogger
}

func (s sugared) With(kv ...interface{}) Logger {
	return sugared{s.SugaredLogger.With(kv...)}
}

// Config controls log output.
type Config struct {
	// Development switches to a human-readable console encoder.
	Development bool
	// FilePath, if non-empty, rotates JSON logs through lumberjack.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a Logger per Config.
func New(cfg Config) Logger {
	var core zapcore.Core

	if cfg.Development {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stderr), zapcore.DebugLevel)
	} else {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "ts"
		var sink zapcore.WriteSyncer = zapcore.AddSync(os.Stdout)
		if cfg.FilePath != "" {
			sink = zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    orDefault(cfg.MaxSizeMB, 64),
				MaxBackups: orDefault(cfg.MaxBackups, 5),
				MaxAge:     orDefault(cfg.MaxAgeDays, 14),
				Compress:   true,
			})
		}
		core = zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, zapcore.InfoLevel)
	}

	return sugared{zap.New(core).Sugar()}
}

// NoOp returns a Logger that discards everything, for tests.
func NoOp() Logger {
	return sugared{zap.NewNop().Sugar()}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
