// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package statful

// sampler decides whether a non-aggregated metric is kept.
type sampler struct {
	// draw returns a uniform value in [0,1).
	draw func() float64
}

func newSampler(draw func() float64) *sampler {
	return &sampler{draw: draw}
}

// keep reports whether a metric reported at the given percentage rate is
// kept. A rate of 100 or more always keeps.
func (s *sampler) keep(rate int) bool {
	if rate >= 100 {
		return true
	}
	return s.draw() <= float64(rate)/100
}
