// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package statful

import (
	"sort"
	"strconv"
	"strings"

	"github.com/statful/statful-client-go/internal/aggregation"
)

// sample is a fully resolved metric, ready to be written as a line.
type sample struct {
	namespace    string
	name         string
	value        float64
	tags         map[string]string
	timestamp    int64
	aggregations []aggregation.Kind
	aggFreq      int
	sampleRate   int
}

// line returns the wire representation of s:
//
//	<namespace>.<name>[,<tag>=<value>]* <value> <timestamp>[ <agg>,...,<freq>[ <rate>]]
//
// The aggregation suffix is written only when withAggregations is set and s
// carries at least one aggregation. Tags are sorted by key.
func (s *sample) line(withAggregations bool) string {
	var b strings.Builder
	b.WriteString(s.namespace)
	b.WriteByte('.')
	b.WriteString(s.name)

	keys := make([]string, 0, len(s.tags))
	for k := range s.tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(',')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(s.tags[k])
	}

	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(s.value, 'f', -1, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatInt(s.timestamp, 10))

	if withAggregations && len(s.aggregations) > 0 {
		b.WriteByte(' ')
		for _, k := range s.aggregations {
			b.WriteString(k.String())
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(s.aggFreq))
		if s.sampleRate > 0 && s.sampleRate < 100 {
			b.WriteByte(' ')
			b.WriteString(strconv.Itoa(s.sampleRate))
		}
	}
	return b.String()
}

// mergeTags merges layers left to right; later layers win on key conflicts.
// It returns nil when every layer is empty.
func mergeTags(layers ...map[string]string) map[string]string {
	n := 0
	for _, l := range layers {
		n += len(l)
	}
	if n == 0 {
		return nil
	}
	out := make(map[string]string, n)
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}
