// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package aggregation holds the fixed aggregation vocabulary understood by
// the collector and the validation rules applied to metric arguments.
package aggregation

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind is an aggregation the collector applies to a metric.
type Kind int

const (
	Avg Kind = iota
	Sum
	Count
	First
	Last
	P90
	P95
	Min
	Max

	// NumKinds is the size of the aggregation vocabulary.
	NumKinds
)

var kindNames = [NumKinds]string{
	Avg:   "avg",
	Sum:   "sum",
	Count: "count",
	First: "first",
	Last:  "last",
	P90:   "p90",
	P95:   "p95",
	Min:   "min",
	Max:   "max",
}

// String returns the wire name of k.
func (k Kind) String() string {
	if !k.Valid() {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Valid reports whether k belongs to the vocabulary.
func (k Kind) Valid() bool {
	return k >= 0 && k < NumKinds
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAggregation, s)
}

// ParseKinds parses every element of names.
func ParseKinds(names []string) ([]Kind, error) {
	if names == nil {
		return nil, nil
	}
	kinds := make([]Kind, 0, len(names))
	for _, n := range names {
		k, err := ParseKind(n)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Frequency is an aggregation interval that has a dedicated bucket on the
// client and a dedicated endpoint on the collector.
type Frequency int

const (
	Freq10 Frequency = iota
	Freq30
	Freq60

	// NumFrequencies is the number of bucket frequencies.
	NumFrequencies
)

var frequencySeconds = [NumFrequencies]int{
	Freq10: 10,
	Freq30: 30,
	Freq60: 60,
}

// Seconds returns the interval length in seconds.
func (f Frequency) Seconds() int {
	if !f.Valid() {
		return 0
	}
	return frequencySeconds[f]
}

// String returns the decimal seconds, as used in collector paths.
func (f Frequency) String() string {
	if !f.Valid() {
		return "Frequency(" + strconv.Itoa(int(f)) + ")"
	}
	return strconv.Itoa(frequencySeconds[f])
}

// Valid reports whether f is one of the bucket frequencies.
func (f Frequency) Valid() bool {
	return f >= 0 && f < NumFrequencies
}

// FrequencyOf returns the bucket frequency for the given number of seconds.
func FrequencyOf(seconds int) (Frequency, error) {
	for f, s := range frequencySeconds {
		if s == seconds {
			return Frequency(f), nil
		}
	}
	return 0, fmt.Errorf("%w: no bucket for %d seconds", ErrInvalidFrequency, seconds)
}

// DefaultFrequency is the aggregation frequency used when none is given.
const DefaultFrequency = 10

var (
	// ErrInvalidAggregation is returned for aggregations outside the vocabulary.
	ErrInvalidAggregation = errors.New("invalid aggregation")
	// ErrInvalidFrequency is returned for frequencies outside [1,100].
	ErrInvalidFrequency = errors.New("invalid aggregation frequency")
)

// ValidKinds reports whether every element of kinds is in the vocabulary.
// A nil or empty list is valid.
func ValidKinds(kinds []Kind) bool {
	for _, k := range kinds {
		if !k.Valid() {
			return false
		}
	}
	return true
}

// ValidFrequency reports whether freq is an acceptable aggregation
// frequency. Zero stands for "not set" and is accepted.
func ValidFrequency(freq int) bool {
	return freq == 0 || (freq >= 1 && freq <= 100)
}

// Validate checks a list of aggregations and an aggregation frequency.
func Validate(kinds []Kind, freq int) error {
	if !ValidKinds(kinds) {
		return fmt.Errorf("%w: %v", ErrInvalidAggregation, kinds)
	}
	if !ValidFrequency(freq) {
		return fmt.Errorf("%w: %d", ErrInvalidFrequency, freq)
	}
	return nil
}

// Concat returns the unique union of left and right, preserving first
// occurrence order. When left is nil, right is returned as is.
func Concat(left, right []Kind) []Kind {
	if left == nil {
		return right
	}
	out := make([]Kind, 0, len(left)+len(right))
	var seen [NumKinds]bool
	for _, list := range [][]Kind{left, right} {
		for _, k := range list {
			if k.Valid() {
				if seen[k] {
					continue
				}
				seen[k] = true
			}
			out = append(out, k)
		}
	}
	return out
}
