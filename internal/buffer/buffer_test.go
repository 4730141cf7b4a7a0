// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package buffer

import (
	"strconv"
	"sync"
	"testing"

	"github.com/statful/statful-client-go/internal/aggregation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLines(t *testing.T) {
	assert := assert.New(t)

	var l Lines
	assert.Equal(0, l.Len())
	assert.Equal("", l.String())

	l.Append("a 1 1")
	l.Append("b 2 2")
	l.Append("c 3 3")
	assert.Equal(3, l.Len())
	assert.Equal("a 1 1\nb 2 2\nc 3 3", l.String())
	assert.Equal([]byte("a 1 1\nb 2 2\nc 3 3"), l.Bytes())

	l.Reset()
	assert.Equal(0, l.Len())
	l.Append("d 4 4")
	assert.Equal("d 4 4", l.String())
}

func TestAggregatedBuckets(t *testing.T) {
	assert := assert.New(t)

	var a Aggregated
	assert.NoError(a.Append("x 1 1", aggregation.Avg, aggregation.Freq60))
	assert.NoError(a.Append("x 2 2", aggregation.Avg, aggregation.Freq60))
	assert.NoError(a.Append("y 3 3", aggregation.Sum, aggregation.Freq60))
	assert.Equal(3, a.Len())

	assert.Equal("x 1 1\nx 2 2", a.Bucket(aggregation.Avg, aggregation.Freq60).String())
	assert.Equal("y 3 3", a.Bucket(aggregation.Sum, aggregation.Freq60).String())
	assert.Equal(0, a.Bucket(aggregation.Avg, aggregation.Freq10).Len())

	type visit struct {
		k aggregation.Kind
		f aggregation.Frequency
		n int
	}
	var visits []visit
	a.Each(func(k aggregation.Kind, f aggregation.Frequency, l *Lines) {
		visits = append(visits, visit{k, f, l.Len()})
	})
	assert.Equal([]visit{
		{aggregation.Avg, aggregation.Freq60, 2},
		{aggregation.Sum, aggregation.Freq60, 1},
	}, visits)

	assert.ErrorIs(a.Append("z 1 1", aggregation.NumKinds, aggregation.Freq10), ErrInvalidBucket)
	assert.ErrorIs(a.Append("z 1 1", aggregation.Avg, aggregation.NumFrequencies), ErrInvalidBucket)
	assert.Nil(a.Bucket(aggregation.Kind(-1), aggregation.Freq10))
	assert.Equal(3, a.Len())

	a.Reset()
	assert.Equal(0, a.Len())
	assert.Equal(0, a.Bucket(aggregation.Avg, aggregation.Freq60).Len())
}

func TestStoreAppend(t *testing.T) {
	assert := assert.New(t)

	s := NewStore()
	n, err := s.AppendLine("a 1 1")
	assert.NoError(err)
	assert.Equal(1, n)

	n, err = s.AppendAggregated("b 1 1", aggregation.Max, aggregation.Freq30)
	assert.NoError(err)
	assert.Equal(2, n)

	n, err = s.AppendSystem("c 1 1")
	assert.NoError(err)
	assert.Equal(3, n)

	nonAgg, agg, sys := s.Sizes()
	assert.Equal([3]int{1, 1, 1}, [3]int{nonAgg, agg, sys})

	_, err = s.AppendLine("")
	assert.ErrorIs(err, ErrInvalidLine)
	_, err = s.AppendAggregated("", aggregation.Max, aggregation.Freq30)
	assert.ErrorIs(err, ErrInvalidLine)
	_, err = s.AppendAggregated("d 1 1", aggregation.Kind(99), aggregation.Freq30)
	assert.ErrorIs(err, ErrInvalidBucket)
	_, err = s.AppendSystem("")
	assert.ErrorIs(err, ErrInvalidLine)
	assert.Equal(3, s.Len())
}

func TestStoreSwap(t *testing.T) {
	assert := assert.New(t)

	s := NewStore()
	for i := 0; i < 5; i++ {
		_, err := s.AppendLine("m " + strconv.Itoa(i) + " 1")
		require.NoError(t, err)
	}
	_, err := s.AppendAggregated("agg 1 1", aggregation.Avg, aggregation.Freq10)
	require.NoError(t, err)

	snap := s.Swap()
	assert.Equal(6, snap.Len())
	assert.Equal("m 0 1\nm 1 1\nm 2 1\nm 3 1\nm 4 1", snap.NonAggregated.String())
	assert.Equal(0, s.Len())
	assert.True(s.Swap().Empty())

	// the snapshot is detached from the store
	_, err = s.AppendLine("late 1 1")
	require.NoError(t, err)
	assert.Equal(5, snap.NonAggregated.Len())
}

func TestStoreConcurrentAppendSwap(t *testing.T) {
	s := NewStore()

	const writers, perWriter = 8, 500
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				s.AppendLine("m 1 1")
			}
		}()
	}

	total := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
loop:
	for {
		select {
		case <-done:
			break loop
		default:
			total += s.Swap().Len()
		}
	}
	total += s.Swap().Len()
	assert.Equal(t, writers*perWriter, total)
}
