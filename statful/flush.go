// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package statful

import (
	"context"
	"strings"
	"time"

	"github.com/statful/statful-client-go/internal/aggregation"
	"github.com/statful/statful-client-go/internal/buffer"
	"github.com/statful/statful-client-go/internal/log"
	"github.com/statful/statful-client-go/internal/transport"

	"github.com/hashicorp/go-multierror"
)

const (
	// flushLengthMetric reports the number of lines of each buffer at flush time.
	flushLengthMetric = "buffer.flush_length"

	// flushTimeout bounds a whole flush, across all the requests it makes.
	flushTimeout = 30 * time.Second
)

// Flush sends every buffered metric now and returns the transport errors,
// if any. Metrics are sent by the background worker anyway; Flush is meant
// for callers that need delivery at a precise point. Nothing is sent while
// no application metric is buffered.
func (c *Client) Flush() error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.flush()
}

// flush collects plugin metrics, swaps the buffers out and sends them. It is
// a no-op when no application metric is buffered: plugins are not called and
// pending system metrics wait for the next flush.
func (c *Client) flush() error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	if nonAggregated, aggregated, _ := c.store.Sizes(); nonAggregated+aggregated == 0 {
		return nil
	}
	r := systemReporter{c}
	for _, p := range c.cfg.plugins {
		p.Flush(r)
	}
	if c.cfg.bufferFlushLength {
		c.putFlushLength()
	}
	snap := c.store.Swap()
	if snap.Empty() {
		return nil
	}
	if c.cfg.dryRun {
		logSnapshot(snap)
		return nil
	}

	start := c.cfg.clock.Now()
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	var err error
	switch {
	case c.udp != nil:
		err = c.sendUDP(ctx, snap)
	case c.api != nil:
		err = c.sendAPI(ctx, snap)
	}
	c.stats.flushed(snap, c.cfg.clock.Since(start), err)
	if err != nil {
		log.Error("Error flushing metrics: %v", err)
	}
	return err
}

// putFlushLength reports the size of each non-empty buffer into the system
// buffer. The aggregated size is reported only when the transport can
// deliver aggregated metrics.
func (c *Client) putFlushLength() {
	nonAggregated, aggregated, system := c.store.Sizes()
	for _, b := range []struct {
		kind string
		size int
	}{
		{"aggregated", aggregated},
		{"non-aggregated", nonAggregated},
		{"system-stats", system},
	} {
		if b.size == 0 || (b.kind == "aggregated" && c.api == nil) {
			continue
		}
		c.putSystem(flushLengthMetric, float64(b.size), []MetricOption{
			Aggregations(aggregation.Avg),
			Tag("buffer_type", b.kind),
		})
	}
}

func (c *Client) sendUDP(ctx context.Context, snap *buffer.Snapshot) error {
	log.Debug("Flushing to %s over UDP", c.udp.Addr())
	if n := snap.Aggregated.Len(); n > 0 {
		log.Warn("Can't flush aggregated metrics using udp transport, discarding %d lines.", n)
		c.stats.discarded(n)
	}
	var errs error
	for _, l := range []*buffer.Lines{&snap.NonAggregated, &snap.System} {
		if l.Len() == 0 {
			continue
		}
		if err := c.udp.Send(ctx, l.Bytes()); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

func (c *Client) sendAPI(ctx context.Context, snap *buffer.Snapshot) error {
	var errs error
	send := func(path string, l *buffer.Lines) {
		log.Debug("Flushing %d lines to %s%s", l.Len(), c.api.BaseURL(), path)
		if err := c.api.Send(ctx, path, l.Bytes()); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if snap.NonAggregated.Len() > 0 {
		send("", &snap.NonAggregated)
	}
	snap.Aggregated.Each(func(k aggregation.Kind, f aggregation.Frequency, l *buffer.Lines) {
		send(transport.AggregationPath(k, f), l)
	})
	if snap.System.Len() > 0 {
		send("", &snap.System)
	}
	return errs
}

func logSnapshot(snap *buffer.Snapshot) {
	if snap.NonAggregated.Len() > 0 {
		log.Info("Flushing metrics (non aggregated): %s", snap.NonAggregated.String())
	}
	if snap.Aggregated.Len() > 0 {
		var b strings.Builder
		snap.Aggregated.Each(func(_ aggregation.Kind, _ aggregation.Frequency, l *buffer.Lines) {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(l.String())
		})
		log.Info("Flushing metrics (aggregated): %s", b.String())
	}
	if snap.System.Len() > 0 {
		log.Info("Flushing metrics (system): %s", snap.System.String())
	}
}
