// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package statful implements a client that buffers application metrics and
// periodically flushes them to a Statful collector over UDP or HTTP.
//
// A client is created with New and released with Close:
//
//	c, err := statful.New(statful.WithApp("checkout"))
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//	c.Counter("orders", 1, statful.Tag("region", "eu"))
//
// Metric calls never block on the network: lines are buffered and sent by a
// background worker every flush interval, or as soon as the buffered line
// count reaches the flush size.
package statful

import (
	"fmt"
	"sync"
	"time"

	"github.com/statful/statful-client-go/internal"
	"github.com/statful/statful-client-go/internal/aggregation"
	"github.com/statful/statful-client-go/internal/buffer"
	"github.com/statful/statful-client-go/internal/log"
	"github.com/statful/statful-client-go/internal/transport"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"
)

const (
	// dropWarnRate and dropWarnBurst bound the warnings logged for dropped
	// metrics. Drops past the limit are logged at debug level.
	dropWarnRate  = 10
	dropWarnBurst = 100
)

// Client buffers metrics and flushes them to the collector. It is safe for
// concurrent use.
type Client struct {
	cfg     *config
	store   *buffer.Store
	sampler *sampler
	stats   *healthStats

	udp *transport.UDPSender
	api *transport.HTTPSender

	// flushMu serializes flushes so payloads leave in buffering order.
	flushMu sync.Mutex

	// flushc receives a signal when the buffered line count reaches the
	// flush size. It holds at most one pending signal.
	flushc chan struct{}
	ticker *clock.Ticker
	exit   chan struct{}
	wg     sync.WaitGroup

	// dropWarn limits the warnings logged for dropped metrics.
	dropWarn *rate.Limiter

	closed     atomic.Bool
	undoLogger func()
}

// New returns a started client configured by opts.
func New(opts ...ClientOption) (*Client, error) {
	c, err := newUnstartedClient(opts...)
	if err != nil {
		return nil, err
	}
	c.start()
	return c, nil
}

// newUnstartedClient builds a client whose worker is not running.
func newUnstartedClient(opts ...ClientOption) (*Client, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	c := &Client{
		cfg:        cfg,
		store:      buffer.NewStore(),
		sampler:    newSampler(cfg.draw),
		flushc:     make(chan struct{}, 1),
		exit:       make(chan struct{}),
		dropWarn:   rate.NewLimiter(dropWarnRate, dropWarnBurst),
		undoLogger: func() {},
	}
	if cfg.logger != nil {
		c.undoLogger = log.UseLogger(cfg.logger)
	}
	if cfg.debug {
		log.SetLevel(log.LevelDebug)
	} else if cfg.dryRun && log.GetLevel() > log.LevelInfo {
		// dry-run payloads are logged at info level
		log.SetLevel(log.LevelInfo)
	}
	if cfg.statsd == nil {
		cfg.statsd, err = internal.NewStatsdClient(cfg.dogstatsdAddr, []string{"transport:" + string(cfg.transport)})
		if err != nil {
			c.undoLogger()
			return nil, fmt.Errorf("cannot create dogstatsd client: %w", err)
		}
	}
	c.stats = newHealthStats(cfg.statsd, cfg.transport)
	switch cfg.transport {
	case TransportUDP:
		c.udp = transport.NewUDPSender(cfg.host, cfg.port)
	case TransportAPI:
		c.api = transport.NewHTTPSender(transport.HTTPConfig{
			Protocol:    cfg.protocol,
			Host:        cfg.host,
			Port:        cfg.port,
			BasePath:    cfg.basePath,
			Token:       cfg.token,
			Timeout:     cfg.timeout,
			Compression: cfg.compression,
			Client:      cfg.httpClient,
		})
	}
	for _, p := range cfg.plugins {
		if err := p.Init(c); err != nil {
			c.release()
			return nil, fmt.Errorf("cannot initialize plugin %T: %w", p, err)
		}
	}
	log.Debug("Client configured: transport=%s host=%s port=%d namespace=%s flushInterval=%s flushSize=%d dryRun=%t",
		cfg.transport, cfg.host, cfg.port, cfg.namespace, cfg.flushInterval, cfg.flushSize, cfg.dryRun)
	return c, nil
}

// start launches the background worker.
func (c *Client) start() {
	c.ticker = c.cfg.clock.Ticker(c.cfg.flushInterval)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.worker()
	}()
}

// worker flushes on every tick and on every flush signal until Close.
func (c *Client) worker() {
	defer c.ticker.Stop()
	for {
		select {
		case <-c.ticker.C:
			c.flush()
		case <-c.flushc:
			c.flush()
		case <-c.exit:
			return
		}
	}
}

// Close stops the background worker, flushes buffered metrics unless
// disabled with WithFlushOnClose(false), and releases network resources.
// Metrics reported after Close are dropped. Close is idempotent.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.exit)
	c.wg.Wait()
	var err error
	if c.cfg.flushOnClose {
		err = c.flush()
	}
	c.release()
	return err
}

// release closes plugins, senders and the health statsd client.
func (c *Client) release() {
	for _, p := range c.cfg.plugins {
		if cl, ok := p.(interface{ Close() error }); ok {
			if err := cl.Close(); err != nil {
				log.Warn("Error closing plugin %T: %v", p, err)
			}
		}
	}
	if c.udp != nil {
		c.udp.Close()
	}
	if c.api != nil {
		c.api.Close()
	}
	c.cfg.statsd.Flush()
	c.cfg.statsd.Close()
	log.Flush()
	c.undoLogger()
}

// Counter reports a counter increment. The name is prefixed with "counter.".
func (c *Client) Counter(name string, value float64, opts ...MetricOption) {
	c.putMetric(&c.cfg.typeDefaults[Counter], "counter."+name, value, opts)
}

// Gauge reports a gauge value. The name is prefixed with "gauge.".
func (c *Client) Gauge(name string, value float64, opts ...MetricOption) {
	c.putMetric(&c.cfg.typeDefaults[Gauge], "gauge."+name, value, opts)
}

// Timer reports a duration in milliseconds. The name is prefixed with "timer.".
func (c *Client) Timer(name string, value float64, opts ...MetricOption) {
	c.putMetric(&c.cfg.typeDefaults[Timer], "timer."+name, value, opts)
}

// Put reports a metric without type defaults or name prefix.
func (c *Client) Put(name string, value float64, opts ...MetricOption) {
	c.putMetric(nil, name, value, opts)
}

// AggregatedCounter reports a counter value already aggregated with k over f.
func (c *Client) AggregatedCounter(name string, value float64, k aggregation.Kind, f aggregation.Frequency, opts ...MetricOption) {
	c.putAggregated(&c.cfg.typeDefaults[Counter], "counter."+name, value, k, f, opts)
}

// AggregatedGauge reports a gauge value already aggregated with k over f.
func (c *Client) AggregatedGauge(name string, value float64, k aggregation.Kind, f aggregation.Frequency, opts ...MetricOption) {
	c.putAggregated(&c.cfg.typeDefaults[Gauge], "gauge."+name, value, k, f, opts)
}

// AggregatedTimer reports a timer value already aggregated with k over f.
func (c *Client) AggregatedTimer(name string, value float64, k aggregation.Kind, f aggregation.Frequency, opts ...MetricOption) {
	c.putAggregated(&c.cfg.typeDefaults[Timer], "timer."+name, value, k, f, opts)
}

// AggregatedPut reports a value already aggregated with k over f, without
// type defaults or name prefix.
func (c *Client) AggregatedPut(name string, value float64, k aggregation.Kind, f aggregation.Frequency, opts ...MetricOption) {
	c.putAggregated(nil, name, value, k, f, opts)
}

// PutRaw buffers a line that is already in wire format.
func (c *Client) PutRaw(line string) {
	if c.dropIfClosed() {
		return
	}
	n, err := c.store.AppendLine(line)
	if err != nil {
		c.drop(reasonInvalid, "Raw metric not buffered: %v", err)
		return
	}
	c.appended(n)
}

// AggregatedPutRaw buffers a wire-format line already aggregated with k
// over f.
func (c *Client) AggregatedPutRaw(line string, k aggregation.Kind, f aggregation.Frequency) {
	if c.dropIfClosed() {
		return
	}
	n, err := c.store.AppendAggregated(line, k, f)
	if err != nil {
		c.drop(reasonInvalid, "Raw aggregated metric not buffered: %v", err)
		return
	}
	c.appended(n)
}

// PutSystem reports a metric about the host or the client itself. It is
// buffered apart from application metrics, is never sampled and is sent in
// its own payload.
func (c *Client) PutSystem(name string, value float64, opts ...MetricOption) {
	if c.dropIfClosed() {
		return
	}
	if n, ok := c.putSystem(name, value, opts); ok {
		c.checkFlushSize(n)
	}
}

// putSystem buffers a system metric without checking the flush size. It is
// used directly by flush, whose own appends must not request another flush.
func (c *Client) putSystem(name string, value float64, opts []MetricOption) (int, bool) {
	s, ok := c.resolve(nil, name, value, opts)
	if !ok {
		return 0, false
	}
	s.sampleRate = 100
	n, err := c.store.AppendSystem(s.line(true))
	if err != nil {
		c.drop(reasonInvalid, "System metric not buffered: %v", err)
		return 0, false
	}
	c.stats.buffered()
	return n, true
}

func (c *Client) putMetric(tc *TypeConfig, name string, value float64, opts []MetricOption) {
	if c.dropIfClosed() {
		return
	}
	s, ok := c.resolve(tc, name, value, opts)
	if !ok {
		return
	}
	if !c.sampler.keep(s.sampleRate) {
		log.Debug("Metric %s.%s was discarded due to sample rate %d.", s.namespace, s.name, s.sampleRate)
		c.stats.dropped(reasonSampled)
		return
	}
	n, err := c.store.AppendLine(s.line(true))
	if err != nil {
		c.drop(reasonInvalid, "Metric not buffered: %v", err)
		return
	}
	c.appended(n)
}

func (c *Client) putAggregated(tc *TypeConfig, name string, value float64, k aggregation.Kind, f aggregation.Frequency, opts []MetricOption) {
	if c.dropIfClosed() {
		return
	}
	if !k.Valid() || !f.Valid() {
		c.drop(reasonInvalid, "Metric %s not sent. Invalid aggregation %s or aggregation frequency %s.", name, k, f)
		return
	}
	s, ok := c.resolve(tc, name, value, opts)
	if !ok {
		return
	}
	n, err := c.store.AppendAggregated(s.line(false), k, f)
	if err != nil {
		c.drop(reasonInvalid, "Aggregated metric not buffered: %v", err)
		return
	}
	c.appended(n)
}

// resolve applies opts, type defaults and client defaults. It reports false
// when the metric arguments are invalid and the metric must be dropped.
func (c *Client) resolve(tc *TypeConfig, name string, value float64, opts []MetricOption) (*sample, bool) {
	var mc metricConfig
	for _, fn := range opts {
		fn(&mc)
	}
	if err := aggregation.Validate(mc.aggregations, mc.aggFreq); err != nil {
		c.drop(reasonInvalid, "Metric %s not sent. Please review the following: aggregations, aggregation frequency, tags and timestamp: %v", name, err)
		return nil, false
	}
	rate := mc.sampleRate
	if rate == 0 {
		rate = c.cfg.sampleRate
	}
	if rate < 1 || rate > 100 {
		c.drop(reasonInvalid, "Metric %s not sent. Invalid sample rate %d.", name, rate)
		return nil, false
	}
	s := &sample{
		namespace:    c.cfg.namespace,
		name:         name,
		value:        value,
		aggregations: mc.aggregations,
		aggFreq:      mc.aggFreq,
		sampleRate:   rate,
	}
	if mc.namespace != "" {
		s.namespace = mc.namespace
	}
	var typeTags map[string]string
	if tc != nil {
		typeTags = tc.Tags
		s.aggregations = aggregation.Concat(tc.Aggregations, mc.aggregations)
		if s.aggFreq == 0 {
			s.aggFreq = tc.AggregationFrequency
		}
	}
	if s.aggFreq == 0 {
		s.aggFreq = aggregation.DefaultFrequency
	}
	var appTag map[string]string
	if c.cfg.app != "" {
		appTag = map[string]string{"app": c.cfg.app}
	}
	s.tags = mergeTags(appTag, typeTags, mc.tags, c.cfg.globalTags)
	if mc.timestamp.IsZero() {
		s.timestamp = c.cfg.clock.Now().Round(time.Second).Unix()
	} else {
		s.timestamp = mc.timestamp.Unix()
	}
	return s, true
}

// appended requests a flush when n buffered lines reach the flush size. The
// flush runs on the worker, never on the caller.
func (c *Client) appended(n int) {
	c.stats.buffered()
	c.checkFlushSize(n)
}

func (c *Client) checkFlushSize(n int) {
	if n < c.cfg.flushSize {
		return
	}
	select {
	case c.flushc <- struct{}{}:
	default:
		// a flush is already pending
	}
}

func (c *Client) dropIfClosed() bool {
	if !c.closed.Load() {
		return false
	}
	log.Debug("Metric dropped: client is closed.")
	c.stats.dropped(reasonClosed)
	return true
}

func (c *Client) drop(reason, format string, a ...interface{}) {
	if c.dropWarn.Allow() {
		log.Warn(format, a...)
	} else {
		log.Debug(format, a...)
	}
	c.stats.dropped(reason)
}
