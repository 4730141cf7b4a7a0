// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package statful

import (
	"fmt"
	"strings"
	"time"

	"github.com/statful/statful-client-go/internal/aggregation"
)

// MetricType identifies the typed helpers that carry default aggregations
// and tags.
type MetricType int

const (
	// Counter is used by Counter and AggregatedCounter.
	Counter MetricType = iota
	// Gauge is used by Gauge and AggregatedGauge.
	Gauge
	// Timer is used by Timer and AggregatedTimer.
	Timer

	numMetricTypes
)

var metricTypeNames = [numMetricTypes]string{
	Counter: "counter",
	Gauge:   "gauge",
	Timer:   "timer",
}

// String returns the prefix the type adds to metric names.
func (t MetricType) String() string {
	if t < 0 || t >= numMetricTypes {
		return fmt.Sprintf("MetricType(%d)", int(t))
	}
	return metricTypeNames[t]
}

// ParseMetricType returns the MetricType named s.
func ParseMetricType(s string) (MetricType, error) {
	for t, name := range metricTypeNames {
		if strings.EqualFold(name, s) {
			return MetricType(t), nil
		}
	}
	return 0, fmt.Errorf("unknown metric type %q", s)
}

// TypeConfig holds the defaults applied to every metric of a MetricType.
type TypeConfig struct {
	// Tags are merged below per-call tags.
	Tags map[string]string
	// Aggregations are concatenated with per-call aggregations.
	Aggregations []aggregation.Kind
	// AggregationFrequency is used when the call does not set one.
	AggregationFrequency int
}

func (tc TypeConfig) validate() error {
	if err := aggregation.Validate(tc.Aggregations, tc.AggregationFrequency); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTypeConfig, err)
	}
	return nil
}

// override replaces every field of tc that is set in o.
func (tc TypeConfig) override(o TypeConfig) TypeConfig {
	if o.Tags != nil {
		tc.Tags = o.Tags
	}
	if o.Aggregations != nil {
		tc.Aggregations = o.Aggregations
	}
	if o.AggregationFrequency != 0 {
		tc.AggregationFrequency = o.AggregationFrequency
	}
	return tc
}

func defaultTypeConfigs() [numMetricTypes]TypeConfig {
	return [numMetricTypes]TypeConfig{
		Timer: {
			Tags:         map[string]string{"unit": "ms"},
			Aggregations: []aggregation.Kind{aggregation.Avg, aggregation.P90, aggregation.Count},
		},
		Counter: {
			Aggregations: []aggregation.Kind{aggregation.Sum, aggregation.Count},
		},
		Gauge: {
			Aggregations: []aggregation.Kind{aggregation.Last},
		},
	}
}

// metricConfig holds the per-call parameters of a metric.
type metricConfig struct {
	tags         map[string]string
	aggregations []aggregation.Kind
	aggFreq      int
	namespace    string
	timestamp    time.Time
	sampleRate   int
}

// MetricOption configures a single metric call.
type MetricOption func(*metricConfig)

// Tags adds the given tags to the metric.
func Tags(tags map[string]string) MetricOption {
	return func(cfg *metricConfig) {
		if cfg.tags == nil {
			cfg.tags = make(map[string]string, len(tags))
		}
		for k, v := range tags {
			cfg.tags[k] = v
		}
	}
}

// Tag adds a single tag to the metric.
func Tag(key, value string) MetricOption {
	return func(cfg *metricConfig) {
		if cfg.tags == nil {
			cfg.tags = make(map[string]string)
		}
		cfg.tags[key] = value
	}
}

// Aggregations requests the collector to aggregate the metric with kinds,
// in addition to the type defaults.
func Aggregations(kinds ...aggregation.Kind) MetricOption {
	return func(cfg *metricConfig) {
		cfg.aggregations = append(cfg.aggregations, kinds...)
	}
}

// AggregationFrequency sets the collector aggregation interval in seconds.
func AggregationFrequency(seconds int) MetricOption {
	return func(cfg *metricConfig) {
		cfg.aggFreq = seconds
	}
}

// Namespace overrides the client namespace for this metric.
func Namespace(ns string) MetricOption {
	return func(cfg *metricConfig) {
		cfg.namespace = ns
	}
}

// Timestamp sets the metric timestamp. It is truncated to seconds.
func Timestamp(t time.Time) MetricOption {
	return func(cfg *metricConfig) {
		cfg.timestamp = t
	}
}

// SampleRate overrides the client sample rate for this metric. It must be
// within [1,100].
func SampleRate(rate int) MetricOption {
	return func(cfg *metricConfig) {
		cfg.sampleRate = rate
	}
}
