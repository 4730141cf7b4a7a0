// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package statful

import (
	"time"

	"github.com/statful/statful-client-go/internal"
	"github.com/statful/statful-client-go/internal/buffer"
)

// Health metric names, sent to dogstatsd under internal.HealthMetricsNamespace.
const (
	metricBuffered  = "lines.buffered"
	metricDropped   = "lines.dropped"
	metricDiscarded = "lines.discarded"
	metricFlushed   = "lines.flushed"
	metricFlushes   = "flush.count"
	metricErrors    = "flush.errors"
	metricDuration  = "flush.duration"
)

// Reasons a metric call was dropped.
const (
	reasonInvalid = "invalid"
	reasonSampled = "sampled"
	reasonClosed  = "closed"
)

// healthStats reports the client's own behaviour to a statsd client.
type healthStats struct {
	statsd internal.StatsdClient
	tags   []string
}

func newHealthStats(s internal.StatsdClient, t Transport) *healthStats {
	return &healthStats{
		statsd: s,
		tags:   []string{"transport:" + string(t)},
	}
}

func (h *healthStats) buffered() {
	h.statsd.Incr(metricBuffered, h.tags, 1)
}

func (h *healthStats) dropped(reason string) {
	h.statsd.Incr(metricDropped, append([]string{"reason:" + reason}, h.tags...), 1)
}

// discarded counts aggregated lines the UDP transport cannot deliver.
func (h *healthStats) discarded(n int) {
	h.statsd.Count(metricDiscarded, int64(n), h.tags, 1)
}

func (h *healthStats) flushed(snap *buffer.Snapshot, d time.Duration, err error) {
	h.statsd.Incr(metricFlushes, h.tags, 1)
	h.statsd.Count(metricFlushed, int64(snap.Len()), h.tags, 1)
	h.statsd.Timing(metricDuration, d, h.tags, 1)
	if err != nil {
		h.statsd.Incr(metricErrors, h.tags, 1)
	}
}
