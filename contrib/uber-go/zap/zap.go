// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package zap routes the client's log output to a go.uber.org/zap logger.
package zap

import (
	"github.com/statful/statful-client-go/internal/log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes client messages to a zap.Logger.
type Logger struct {
	l *zap.Logger
}

// New returns a Logger writing to l. A nil l uses zap.L().
func New(l *zap.Logger) *Logger {
	if l == nil {
		l = zap.L()
	}
	return &Logger{l: l.Named("statful")}
}

func level(lvl string) zapcore.Level {
	switch lvl {
	case "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// Log implements the client's logger interface.
func (l *Logger) Log(msg string) {
	lvl, text := log.Split(msg)
	if ce := l.l.Check(level(lvl), text); ce != nil {
		ce.Write()
	}
}

// Sync flushes the underlying zap logger.
func (l *Logger) Sync() error {
	return l.l.Sync()
}
