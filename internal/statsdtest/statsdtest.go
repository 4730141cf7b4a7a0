// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package statsdtest provides an in-memory StatsdClient for tests.
package statsdtest

import (
	"fmt"
	"sync"
	"time"

	"github.com/statful/statful-client-go/internal"

	"github.com/stretchr/testify/assert"
)

type callType int64

const (
	callTypeGauge callType = iota
	callTypeIncr
	callTypeCount
	callTypeTiming
)

var _ internal.StatsdClient = &TestStatsdClient{}

// TestStatsdClient records every call made to it.
type TestStatsdClient struct {
	mu          sync.RWMutex
	gaugeCalls  []TestStatsdCall
	incrCalls   []TestStatsdCall
	countCalls  []TestStatsdCall
	timingCalls []TestStatsdCall
	counts      map[string]int64
	n           int
	closed      bool
	flushed     int
}

// TestStatsdCall is a single recorded call.
type TestStatsdCall struct {
	name     string
	floatVal float64
	intVal   int64
	timeVal  time.Duration
	tags     []string
	rate     float64
}

func (t TestStatsdCall) Name() string { return t.name }

func (t TestStatsdCall) Tags() []string { return t.tags }

func (t TestStatsdCall) IntVal() int64 { return t.intVal }

func (t TestStatsdCall) FloatVal() float64 { return t.floatVal }

func (t TestStatsdCall) TimeVal() time.Duration { return t.timeVal }

func (tg *TestStatsdClient) Gauge(name string, value float64, tags []string, rate float64) error {
	return tg.addMetric(callTypeGauge, tags, TestStatsdCall{
		name:     name,
		floatVal: value,
		rate:     rate,
	})
}

func (tg *TestStatsdClient) Incr(name string, tags []string, rate float64) error {
	return tg.addMetric(callTypeIncr, tags, TestStatsdCall{
		name:   name,
		intVal: 1,
		rate:   rate,
	})
}

func (tg *TestStatsdClient) Count(name string, value int64, tags []string, rate float64) error {
	return tg.addMetric(callTypeCount, tags, TestStatsdCall{
		name:   name,
		intVal: value,
		rate:   rate,
	})
}

func (tg *TestStatsdClient) Timing(name string, value time.Duration, tags []string, rate float64) error {
	return tg.addMetric(callTypeTiming, tags, TestStatsdCall{
		name:    name,
		timeVal: value,
		rate:    rate,
	})
}

func (tg *TestStatsdClient) addMetric(ct callType, tags []string, c TestStatsdCall) error {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	c.tags = append([]string(nil), tags...)
	switch ct {
	case callTypeGauge:
		tg.gaugeCalls = append(tg.gaugeCalls, c)
	case callTypeIncr:
		tg.incrCalls = append(tg.incrCalls, c)
	case callTypeCount:
		tg.countCalls = append(tg.countCalls, c)
	case callTypeTiming:
		tg.timingCalls = append(tg.timingCalls, c)
	}
	if ct == callTypeIncr || ct == callTypeCount {
		if tg.counts == nil {
			tg.counts = make(map[string]int64)
		}
		tg.counts[c.name] += c.intVal
	}
	tg.n++
	return nil
}

func (tg *TestStatsdClient) Flush() error {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.flushed++
	return nil
}

func (tg *TestStatsdClient) Close() error {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.closed = true
	return nil
}

func (tg *TestStatsdClient) GaugeCalls() []TestStatsdCall {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	return append([]TestStatsdCall(nil), tg.gaugeCalls...)
}

func (tg *TestStatsdClient) IncrCalls() []TestStatsdCall {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	return append([]TestStatsdCall(nil), tg.incrCalls...)
}

func (tg *TestStatsdClient) CountCalls() []TestStatsdCall {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	return append([]TestStatsdCall(nil), tg.countCalls...)
}

func (tg *TestStatsdClient) TimingCalls() []TestStatsdCall {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	return append([]TestStatsdCall(nil), tg.timingCalls...)
}

// CallsByName returns how many calls were recorded for each metric name.
func (tg *TestStatsdClient) CallsByName() map[string]int {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	counts := make(map[string]int)
	for _, calls := range [][]TestStatsdCall{tg.gaugeCalls, tg.incrCalls, tg.countCalls, tg.timingCalls} {
		for _, c := range calls {
			counts[c.name]++
		}
	}
	return counts
}

// GetCallsByName returns every recorded call with the given name.
func (tg *TestStatsdClient) GetCallsByName(name string) (calls []TestStatsdCall) {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	for _, list := range [][]TestStatsdCall{tg.gaugeCalls, tg.incrCalls, tg.countCalls, tg.timingCalls} {
		for _, c := range list {
			if c.name == name {
				calls = append(calls, c)
			}
		}
	}
	return calls
}

// Counts returns the accumulated Incr and Count values per name.
func (tg *TestStatsdClient) Counts() map[string]int64 {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	c := make(map[string]int64, len(tg.counts))
	for key, value := range tg.counts {
		c[key] = value
	}
	return c
}

func (tg *TestStatsdClient) Reset() {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.gaugeCalls = tg.gaugeCalls[:0]
	tg.incrCalls = tg.incrCalls[:0]
	tg.countCalls = tg.countCalls[:0]
	tg.timingCalls = tg.timingCalls[:0]
	tg.counts = make(map[string]int64)
	tg.n = 0
}

// Wait blocks until n metrics have been reported or until duration d passes.
func (tg *TestStatsdClient) Wait(asserts *assert.Assertions, n int, d time.Duration) error {
	c := func() bool {
		tg.mu.RLock()
		defer tg.mu.RUnlock()
		return tg.n >= n
	}
	if !asserts.Eventually(c, d, 10*time.Millisecond) {
		return fmt.Errorf("timed out after waiting %s for %d statsd calls", d, n)
	}
	return nil
}

func (tg *TestStatsdClient) Closed() bool {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	return tg.closed
}

func (tg *TestStatsdClient) Flushed() int {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	return tg.flushed
}
