// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package statful

import "errors"

var (
	// ErrInvalidTypeConfig is returned by New when a per-type default
	// configuration holds an unknown aggregation or an out of range
	// frequency.
	ErrInvalidTypeConfig = errors.New("Metric type configuration is invalid, please read the documentation")

	// ErrMissingToken is returned by New when the API transport is selected
	// without an API token.
	ErrMissingToken = errors.New("statful API token not defined")

	// ErrInvalidTransport is returned by New for an unknown transport.
	ErrInvalidTransport = errors.New("invalid transport")

	// ErrInvalidSampleRate is returned by New when the sample rate is outside
	// [1,100].
	ErrInvalidSampleRate = errors.New("sample rate must be between 1 and 100")

	// ErrClosed is returned by Flush after Close.
	ErrClosed = errors.New("statful client is closed")
)
