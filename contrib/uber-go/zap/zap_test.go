// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package zap

import (
	"testing"

	"github.com/statful/statful-client-go/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	defer log.UseLogger(New(zap.New(core)))()
	defer log.SetLevel(log.GetLevel())
	log.SetLevel(log.LevelInfo)

	log.Debug("hidden")
	log.Info("Flushing metrics (non aggregated): %s", "a 1 1")
	log.Warn("invalid metric %q", "")

	logs := observed.All()
	require.Len(t, logs, 2)
	assert.Equal(t, zapcore.InfoLevel, logs[0].Level)
	assert.Equal(t, "Flushing metrics (non aggregated): a 1 1", logs[0].Message)
	assert.Equal(t, "statful", logs[0].LoggerName)
	assert.Equal(t, zapcore.WarnLevel, logs[1].Level)
}

func TestLoggerRespectsCoreLevel(t *testing.T) {
	core, observed := observer.New(zapcore.ErrorLevel)
	l := New(zap.New(core))

	l.Log("unprefixed warning")
	assert.Equal(t, 0, observed.Len())

	defer log.UseLogger(l)()
	log.Error("send failed")
	log.Flush()
	require.Equal(t, 1, observed.Len())
	assert.Equal(t, zapcore.ErrorLevel, observed.All()[0].Level)
	assert.NoError(t, l.Sync())
}
