// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package log

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLog(t *testing.T) {
	tp := &RecordLogger{}
	defer UseLogger(tp)()

	t.Run("Warn", func(t *testing.T) {
		tp.Reset()
		Warn("message %d", 1)
		assert.Equal(t, msg("WARN", "message 1"), tp.Logs()[0])
	})

	t.Run("Info", func(t *testing.T) {
		t.Run("on", func(t *testing.T) {
			tp.Reset()
			defer SetLevel(GetLevel())
			SetLevel(LevelInfo)

			Info("dry %s", "run")
			assert.Equal(t, msg("INFO", "dry run"), tp.Logs()[0])
		})

		t.Run("off", func(t *testing.T) {
			tp.Reset()
			Info("dry %s", "run")
			assert.Len(t, tp.Logs(), 0)
		})
	})

	t.Run("Debug", func(t *testing.T) {
		t.Run("on", func(t *testing.T) {
			tp.Reset()
			defer SetLevel(GetLevel())
			SetLevel(LevelDebug)
			assert.True(t, DebugEnabled())

			Debug("message %d", 3)
			Info("message %d", 4)
			assert.Equal(t, []string{msg("DEBUG", "message 3"), msg("INFO", "message 4")}, tp.Logs())
		})

		t.Run("off", func(t *testing.T) {
			tp.Reset()
			assert.False(t, DebugEnabled())
			Debug("message %d", 2)
			assert.Len(t, tp.Logs(), 0)
		})
	})

	t.Run("Error", func(t *testing.T) {
		t.Run("auto", func(t *testing.T) {
			defer func(old time.Duration) { errrate = old }(errrate)
			errrate = 10 * time.Hour

			tp.Reset()
			Error("a message %d", 1)
			Error("a message %d", 2)
			Error("a message %d", 3)
			Error("b message")

			Flush()
			assert.True(t, hasMsg("ERROR", "a message 1, 2 additional messages skipped", tp.Logs()), tp.Logs())
			assert.True(t, hasMsg("ERROR", "b message", tp.Logs()), tp.Logs())
			assert.Len(t, tp.Logs(), 2)
		})

		t.Run("flush", func(t *testing.T) {
			tp.Reset()
			Error("fourth message %d", 4)

			Flush()
			assert.True(t, hasMsg("ERROR", "fourth message 4", tp.Logs()), tp.Logs())
			assert.Len(t, tp.Logs(), 1)

			Flush()
			Flush()
			assert.Len(t, tp.Logs(), 1)
		})

		t.Run("limit", func(t *testing.T) {
			defer func(old time.Duration) { errrate = old }(errrate)
			errrate = 10 * time.Hour

			tp.Reset()
			for i := 0; i < defaultErrorLimit+10; i++ {
				Error("fifth message %d", i)
			}

			Flush()
			assert.True(t, hasMsg("ERROR", "fifth message 0, 200+ additional messages skipped", tp.Logs()), tp.Logs())
			assert.Len(t, tp.Logs(), 1)
		})

		t.Run("instant", func(t *testing.T) {
			tp.Reset()
			defer func(old time.Duration) { errrate = old }(errrate)
			errrate = 0

			Error("sixth message %d", 6)
			assert.True(t, hasMsg("ERROR", "sixth message 6", tp.Logs()), tp.Logs())
			assert.Len(t, tp.Logs(), 1)
		})
	})
}

func TestUseLoggerUndo(t *testing.T) {
	first := &RecordLogger{}
	undoFirst := UseLogger(first)
	defer undoFirst()

	second := &RecordLogger{}
	undo := UseLogger(second)
	Warn("to second")
	undo()
	Warn("to first")

	assert.Equal(t, []string{msg("WARN", "to second")}, second.Logs())
	assert.Equal(t, []string{msg("WARN", "to first")}, first.Logs())
}

func TestUseLoggerUndoOutOfOrder(t *testing.T) {
	base := &RecordLogger{}
	defer UseLogger(base)()

	first, second := &RecordLogger{}, &RecordLogger{}
	undoFirst := UseLogger(first)
	undoSecond := UseLogger(second)

	// removing an older logger keeps the newest one active
	undoFirst()
	Warn("still second")
	undoSecond()
	Warn("back to base")
	undoSecond()
	Warn("undo is idempotent")

	assert.Empty(t, first.Logs())
	assert.Equal(t, []string{msg("WARN", "still second")}, second.Logs())
	assert.Equal(t, []string{msg("WARN", "back to base"), msg("WARN", "undo is idempotent")}, base.Logs())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelInfo, ParseLevel(" info "))
	assert.Equal(t, LevelWarn, ParseLevel("warn"))
	assert.Equal(t, LevelWarn, ParseLevel("verbose"))
}

func TestSetLoggingRate(t *testing.T) {
	testCases := []struct {
		input  string
		result time.Duration
	}{
		{
			input:  "",
			result: time.Minute,
		},
		{
			input:  "0",
			result: 0 * time.Second,
		},
		{
			input:  "10",
			result: 10 * time.Second,
		},
		{
			input:  "-1",
			result: time.Minute,
		},
		{
			input:  "this is not a number",
			result: time.Minute,
		},
	}
	defer UseLogger(DiscardLogger{})()
	defer func(old time.Duration) { errrate = old }(errrate)
	for _, tC := range testCases {
		errrate = time.Minute // reset global variable
		t.Run(tC.input, func(t *testing.T) {
			setLoggingRate(tC.input)
			assert.Equal(t, tC.result, errrate)
		})
	}
}

func TestSplit(t *testing.T) {
	lvl, text := Split(msg("WARN", "bad: value"))
	assert.Equal(t, "WARN", lvl)
	assert.Equal(t, "bad: value", text)

	lvl, text = Split("plain message")
	assert.Equal(t, "", lvl)
	assert.Equal(t, "plain message", text)
}

func BenchmarkError(b *testing.B) {
	defer UseLogger(DiscardLogger{})()
	Error("k %s", "a") // warm up cache
	for i := 0; i < b.N; i++ {
		Error("k %s", "a")
	}
}

func hasMsg(lvl, m string, lines []string) bool {
	for _, line := range lines {
		if strings.HasPrefix(line, msg(lvl, m)) {
			return true
		}
	}
	return false
}

func msg(lvl, msg string) string {
	return fmt.Sprintf("%s %s: %s", prefixMsg, lvl, msg)
}
