// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package statful

// Reporter receives system metrics from plugins.
type Reporter interface {
	// PutSystem buffers a metric in the system buffer.
	PutSystem(name string, value float64, opts ...MetricOption)
}

// Plugin reports metrics about the host or the process. Plugins are
// registered with WithPlugin. A plugin that also implements
// interface{ Close() error } is closed by Client.Close.
type Plugin interface {
	// Init is called once by New. A non-nil error makes New fail.
	Init(r Reporter) error
	// Flush is called before every flush, with a Reporter that keeps
	// accepting metrics during the final flush of Close.
	Flush(r Reporter)
}

var _ Reporter = (*Client)(nil)

// systemReporter writes to the system buffer regardless of the closed state
// and never requests a flush.
type systemReporter struct{ c *Client }

func (r systemReporter) PutSystem(name string, value float64, opts ...MetricOption) {
	r.c.putSystem(name, value, opts)
}
