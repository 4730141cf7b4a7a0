// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package statful

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fixedDraw(v float64) func() float64 {
	return func() float64 { return v }
}

func TestSamplerKeep(t *testing.T) {
	assert := assert.New(t)

	assert.True(newSampler(fixedDraw(0.999)).keep(100))
	assert.True(newSampler(fixedDraw(0.5)).keep(50))
	assert.False(newSampler(fixedDraw(0.51)).keep(50))
	assert.True(newSampler(fixedDraw(0)).keep(1))
	assert.False(newSampler(fixedDraw(0.99)).keep(1))
}

func TestSamplerRate(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	s := newSampler(r.Float64)

	const n = 20000
	kept := 0
	for i := 0; i < n; i++ {
		if s.keep(30) {
			kept++
		}
	}
	assert.InDelta(t, 0.3, float64(kept)/n, 0.02)
}
