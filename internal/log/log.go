// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package log provides logging utilities for the metrics client.
package log

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/statful/statful-client-go/internal/version"
)

// Level specifies the logging level that the log package prints at.
type Level int

const (
	// LevelDebug represents debug level messages.
	LevelDebug Level = iota
	// LevelInfo represents informational messages, such as dry-run output.
	LevelInfo
	// LevelWarn represents warning and errors.
	LevelWarn
)

// ParseLevel returns the Level named s. Unknown names map to LevelWarn.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	default:
		return LevelWarn
	}
}

// Logger implementations are able to log given messages that the client
// might output.
type Logger interface {
	// Log prints the given message.
	Log(msg string)
}

var prefixMsg = fmt.Sprintf("Statful Client %s", version.Tag)

var (
	mu             sync.RWMutex // guards below fields
	levelThreshold        = LevelWarn
	logger         Logger = defaultLog
	// installed holds the loggers set with UseLogger, most recent last.
	installed []installedLogger
	lastID    uint64
)

var defaultLog Logger = &defaultLogger{l: log.New(os.Stderr, "", log.LstdFlags)}

type installedLogger struct {
	id uint64
	l  Logger
}

// UseLogger sets l as the active logger and returns a function removing it.
// Undo calls may come in any order: the active logger is always the most
// recently installed one that has not been removed.
func UseLogger(l Logger) (undo func()) {
	mu.Lock()
	defer mu.Unlock()
	lastID++
	id := lastID
	installed = append(installed, installedLogger{id: id, l: l})
	logger = l
	return func() {
		mu.Lock()
		defer mu.Unlock()
		for i, il := range installed {
			if il.id == id {
				installed = append(installed[:i], installed[i+1:]...)
				break
			}
		}
		if n := len(installed); n > 0 {
			logger = installed[n-1].l
		} else {
			logger = defaultLog
		}
	}
}

// SetLevel sets the given lvl as log threshold for logging.
func SetLevel(lvl Level) {
	mu.Lock()
	defer mu.Unlock()
	levelThreshold = lvl
}

// GetLevel returns the currrent log level.
func GetLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return levelThreshold
}

// DebugEnabled returns true if debug log messages are enabled.
func DebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

// Debug prints the given message if the level is LevelDebug.
func Debug(fmt string, a ...interface{}) {
	if !DebugEnabled() {
		return
	}
	printMsg("DEBUG", fmt, a...)
}

// Info prints an informational message if the level is LevelInfo or lower.
func Info(fmt string, a ...interface{}) {
	if GetLevel() > LevelInfo {
		return
	}
	printMsg("INFO", fmt, a...)
}

// Warn prints a warning message.
func Warn(fmt string, a ...interface{}) {
	printMsg("WARN", fmt, a...)
}

var (
	errmu   sync.RWMutex                // guards below fields
	erragg  = map[string]*errorReport{} // aggregated errors
	errrate = time.Minute               // the rate at which errors are reported
	erron   bool                        // true if errors are being aggregated
)

func init() {
	if v, ok := os.LookupEnv("STATFUL_LOGGING_RATE"); ok {
		setLoggingRate(v)
	}
	if v, ok := os.LookupEnv("STATFUL_LOG_LEVEL"); ok {
		SetLevel(ParseLevel(v))
	}
}

func setLoggingRate(v string) {
	if sec, err := strconv.ParseInt(v, 10, 64); err != nil {
		Warn("Invalid value for STATFUL_LOGGING_RATE: %v", err)
	} else {
		if sec < 0 {
			Warn("Invalid value for STATFUL_LOGGING_RATE: negative value")
		} else {
			errrate = time.Duration(sec) * time.Second
		}
	}
}

type errorReport struct {
	first time.Time // time when first error occurred
	err   error
	count uint64
}

// Error reports an error. Errors get aggregated and logged periodically. The
// default is once per minute or once every STATFUL_LOGGING_RATE number of
// seconds.
func Error(format string, a ...interface{}) {
	key := format // format should 99.9% of the time be constant
	if reachedLimit(key) {
		// avoid too much lock contention on spammy errors
		return
	}
	errmu.Lock()
	defer errmu.Unlock()
	report, ok := erragg[key]
	if !ok {
		erragg[key] = &errorReport{
			err:   fmt.Errorf(format, a...),
			first: time.Now(),
		}
		report = erragg[key]
	}
	report.count++
	if errrate == 0 {
		flushLocked()
		return
	}
	if !erron {
		erron = true
		time.AfterFunc(errrate, Flush)
	}
}

// defaultErrorLimit specifies the maximum number of errors gathered in a report.
const defaultErrorLimit = 200

// reachedLimit reports whether the maximum count has been reached for this key.
func reachedLimit(key string) bool {
	errmu.RLock()
	e, ok := erragg[key]
	confirm := ok && e.count > defaultErrorLimit
	errmu.RUnlock()
	return confirm
}

// Flush flushes and resets all aggregated errors to the logger.
func Flush() {
	errmu.Lock()
	defer errmu.Unlock()
	flushLocked()
}

func flushLocked() {
	for _, report := range erragg {
		var extra string
		if report.count > defaultErrorLimit {
			extra = fmt.Sprintf(", %d+ additional messages skipped (first occurrence: %s)", defaultErrorLimit, report.first.Format(time.RFC822))
		} else if report.count > 1 {
			extra = fmt.Sprintf(", %d additional messages skipped (first occurrence: %s)", report.count-1, report.first.Format(time.RFC822))
		}
		printMsg("ERROR", "%v%s", report.err, extra)
	}
	for k := range erragg {
		delete(erragg, k)
	}
	erron = false
}

func printMsg(lvl, format string, a ...interface{}) {
	msg := fmt.Sprintf("%s %s: %s", prefixMsg, lvl, fmt.Sprintf(format, a...))
	mu.RLock()
	logger.Log(msg)
	mu.RUnlock()
}

// Split breaks a message produced by this package into its level name
// ("DEBUG", "INFO", "WARN" or "ERROR") and its text. Messages without the
// package prefix are returned whole with an empty level.
func Split(msg string) (lvl, text string) {
	rest, ok := strings.CutPrefix(msg, prefixMsg+" ")
	if !ok {
		return "", msg
	}
	lvl, text, ok = strings.Cut(rest, ": ")
	if !ok {
		return "", msg
	}
	return lvl, text
}

type defaultLogger struct{ l *log.Logger }

func (p *defaultLogger) Log(msg string) { p.l.Print(msg) }

// DiscardLogger discards every call to Log().
type DiscardLogger struct{}

// Log implements Logger.
func (d DiscardLogger) Log(_ string) {}

// RecordLogger records every call to Log() and makes it available via Logs().
type RecordLogger struct {
	m    sync.Mutex
	logs []string
}

// Log implements Logger.
func (r *RecordLogger) Log(msg string) {
	r.m.Lock()
	defer r.m.Unlock()
	r.logs = append(r.logs, msg)
}

// Logs returns the ordered list of logs recorded by the logger.
func (r *RecordLogger) Logs() []string {
	r.m.Lock()
	defer r.m.Unlock()
	copied := make([]string, len(r.logs))
	copy(copied, r.logs)
	return copied
}

// Reset resets the logger's internal logs
func (r *RecordLogger) Reset() {
	r.m.Lock()
	defer r.m.Unlock()
	r.logs = r.logs[:0]
}
