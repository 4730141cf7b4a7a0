// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package logrus routes the client's log output to a sirupsen/logrus logger (https://github.com/sirupsen/logrus).
package logrus

import (
	"github.com/statful/statful-client-go/internal/log"

	"github.com/sirupsen/logrus"
)

// Logger writes client messages to a logrus.FieldLogger at the level they
// were emitted with.
type Logger struct {
	l logrus.FieldLogger
}

// New returns a Logger writing to l. A nil l uses the logrus standard logger.
//
//	c, err := statful.New(statful.WithLogger(logrus.New(nil)))
func New(l logrus.FieldLogger) *Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &Logger{l: l.WithField("component", "statful")}
}

// Log implements the client's logger interface.
func (l *Logger) Log(msg string) {
	lvl, text := log.Split(msg)
	switch lvl {
	case "DEBUG":
		l.l.Debug(text)
	case "INFO":
		l.l.Info(text)
	case "ERROR":
		l.l.Error(text)
	default:
		l.l.Warn(text)
	}
}
