// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindNames(t *testing.T) {
	assert := assert.New(t)

	names := []string{"avg", "sum", "count", "first", "last", "p90", "p95", "min", "max"}
	for i, name := range names {
		k, err := ParseKind(name)
		assert.NoError(err)
		assert.Equal(Kind(i), k)
		assert.Equal(name, k.String())
	}

	_, err := ParseKind("median")
	assert.ErrorIs(err, ErrInvalidAggregation)
	assert.False(Kind(-1).Valid())
	assert.False(NumKinds.Valid())
}

func TestParseKinds(t *testing.T) {
	kinds, err := ParseKinds([]string{"avg", "p90"})
	require.NoError(t, err)
	assert.Equal(t, []Kind{Avg, P90}, kinds)

	kinds, err = ParseKinds(nil)
	assert.NoError(t, err)
	assert.Nil(t, kinds)

	_, err = ParseKinds([]string{"avg", "nope"})
	assert.ErrorIs(t, err, ErrInvalidAggregation)
}

func TestFrequency(t *testing.T) {
	assert := assert.New(t)

	for _, s := range []int{10, 30, 60} {
		f, err := FrequencyOf(s)
		assert.NoError(err)
		assert.Equal(s, f.Seconds())
	}
	assert.Equal("60", Freq60.String())

	_, err := FrequencyOf(15)
	assert.ErrorIs(err, ErrInvalidFrequency)
	assert.Equal(0, NumFrequencies.Seconds())
}

func TestValidate(t *testing.T) {
	for name, tc := range map[string]struct {
		kinds []Kind
		freq  int
		err   error
	}{
		"absent":          {nil, 0, nil},
		"empty":           {[]Kind{}, 0, nil},
		"all-kinds":       {[]Kind{Avg, Sum, Count, First, Last, P90, P95, Min, Max}, 100, nil},
		"lower-bound":     {[]Kind{Avg}, 1, nil},
		"unknown-kind":    {[]Kind{Avg, Kind(42)}, 10, ErrInvalidAggregation},
		"negative-kind":   {[]Kind{Kind(-3)}, 10, ErrInvalidAggregation},
		"freq-too-high":   {[]Kind{Avg}, 101, ErrInvalidFrequency},
		"freq-negative":   {nil, -5, ErrInvalidFrequency},
		"both-invalid":    {[]Kind{NumKinds}, 300, ErrInvalidAggregation},
		"freq-upper-edge": {nil, 100, nil},
	} {
		t.Run(name, func(t *testing.T) {
			err := Validate(tc.kinds, tc.freq)
			if tc.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestConcat(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]Kind{Avg, P90, Count, Max}, Concat([]Kind{Avg, P90, Count}, []Kind{P90, Max, Avg}))
	assert.Equal([]Kind{Sum}, Concat(nil, []Kind{Sum}))
	assert.Equal([]Kind{Last}, Concat([]Kind{Last}, nil))
	assert.Nil(Concat(nil, nil))
}
