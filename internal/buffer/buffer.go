// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package buffer implements the in-memory line buffers a client accumulates
// between two flushes.
package buffer

import (
	"bytes"
	"errors"
	"sync"

	"github.com/statful/statful-client-go/internal/aggregation"
)

var (
	// ErrInvalidLine is returned when appending an empty metric line.
	ErrInvalidLine = errors.New("invalid metric line")
	// ErrInvalidBucket is returned when appending to an aggregation bucket
	// that does not exist.
	ErrInvalidBucket = errors.New("invalid aggregation bucket")
)

// Lines accumulates newline-separated metric lines.
type Lines struct {
	buf bytes.Buffer
	n   int
}

// Append adds line to l, separated from the previous one by a newline.
func (l *Lines) Append(line string) {
	if l.n > 0 {
		l.buf.WriteByte('\n')
	}
	l.buf.WriteString(line)
	l.n++
}

// Len returns the number of lines in l.
func (l *Lines) Len() int { return l.n }

// Bytes returns the newline-joined payload. It is only valid until the
// next Append.
func (l *Lines) Bytes() []byte { return l.buf.Bytes() }

// String returns the newline-joined payload as a string.
func (l *Lines) String() string { return l.buf.String() }

// Reset empties l.
func (l *Lines) Reset() {
	l.buf.Reset()
	l.n = 0
}

// Aggregated holds one Lines bucket per (aggregation, frequency) pair. Every
// bucket exists for the lifetime of the table, empty or not.
type Aggregated struct {
	buckets [aggregation.NumKinds][aggregation.NumFrequencies]Lines
	n       int
}

// Append adds line to the bucket identified by k and f.
func (a *Aggregated) Append(line string, k aggregation.Kind, f aggregation.Frequency) error {
	if !k.Valid() || !f.Valid() {
		return ErrInvalidBucket
	}
	a.buckets[k][f].Append(line)
	a.n++
	return nil
}

// Len returns the number of lines across all buckets.
func (a *Aggregated) Len() int { return a.n }

// Bucket returns the bucket for k and f, or nil if it does not exist.
func (a *Aggregated) Bucket(k aggregation.Kind, f aggregation.Frequency) *Lines {
	if !k.Valid() || !f.Valid() {
		return nil
	}
	return &a.buckets[k][f]
}

// Each calls fn for every non-empty bucket, in vocabulary then frequency
// order.
func (a *Aggregated) Each(fn func(k aggregation.Kind, f aggregation.Frequency, l *Lines)) {
	if a.n == 0 {
		return
	}
	for k := range a.buckets {
		for f := range a.buckets[k] {
			if l := &a.buckets[k][f]; l.Len() > 0 {
				fn(aggregation.Kind(k), aggregation.Frequency(f), l)
			}
		}
	}
}

// Reset empties every bucket.
func (a *Aggregated) Reset() {
	for k := range a.buckets {
		for f := range a.buckets[k] {
			a.buckets[k][f].Reset()
		}
	}
	a.n = 0
}

// Snapshot is the full content of a Store at a point in time.
type Snapshot struct {
	// NonAggregated holds raw samples that the collector aggregates.
	NonAggregated Lines
	// Aggregated holds values that were aggregated before reaching the client.
	Aggregated Aggregated
	// System holds lines produced by plugins and client diagnostics.
	System Lines
}

// Len returns the total number of lines in s.
func (s *Snapshot) Len() int {
	return s.NonAggregated.Len() + s.Aggregated.Len() + s.System.Len()
}

// Empty reports whether s holds no lines.
func (s *Snapshot) Empty() bool { return s.Len() == 0 }

// Store is the set of buffers owned by a client. It is safe for concurrent
// use; appends and Swap are serialized so that no line can be appended
// between a flush reading the buffers and clearing them.
type Store struct {
	mu  sync.Mutex // guards cur
	cur *Snapshot
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{cur: new(Snapshot)}
}

// AppendLine adds a non-aggregated line and returns the store's total
// number of lines afterwards.
func (s *Store) AppendLine(line string) (int, error) {
	if line == "" {
		return 0, ErrInvalidLine
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.NonAggregated.Append(line)
	return s.cur.Len(), nil
}

// AppendAggregated adds line to the bucket for k and f and returns the
// store's total number of lines afterwards.
func (s *Store) AppendAggregated(line string, k aggregation.Kind, f aggregation.Frequency) (int, error) {
	if line == "" {
		return 0, ErrInvalidLine
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cur.Aggregated.Append(line, k, f); err != nil {
		return 0, err
	}
	return s.cur.Len(), nil
}

// AppendSystem adds a plugin or diagnostic line and returns the store's
// total number of lines afterwards.
func (s *Store) AppendSystem(line string) (int, error) {
	if line == "" {
		return 0, ErrInvalidLine
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.System.Append(line)
	return s.cur.Len(), nil
}

// Len returns the total number of buffered lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.Len()
}

// Sizes returns the line count of each buffer.
func (s *Store) Sizes() (nonAggregated, aggregated, system int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.NonAggregated.Len(), s.cur.Aggregated.Len(), s.cur.System.Len()
}

// Swap returns the current content and leaves the store empty.
func (s *Store) Swap() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.cur
	s.cur = new(Snapshot)
	return old
}
