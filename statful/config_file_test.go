// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package statful

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/statful/statful-client-go/internal/aggregation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
transport: api
host: collector.example.com
port: 8443
token: file-token
basePath: /tel/v2.0/metrics
timeout: 500ms
app: checkout
namespace: shop
tags:
  env: staging
sampleRate: 80
flushInterval: 10s
flushSize: 250
compression: true
dryRun: false
flushOnClose: false
bufferFlushLength: true
defaults:
  timer:
    aggregations: [avg, p95]
    aggregationFrequency: 30
  counter:
    tags:
      kind: business
`

func TestParseConfig(t *testing.T) {
	opts, err := ParseConfig([]byte(testConfigYAML))
	require.NoError(t, err)
	cfg, err := newConfig(opts...)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(TransportAPI, cfg.transport)
	assert.Equal("collector.example.com", cfg.host)
	assert.Equal(8443, cfg.port)
	assert.Equal("file-token", cfg.token)
	assert.Equal(500*time.Millisecond, cfg.timeout)
	assert.Equal("checkout", cfg.app)
	assert.Equal("shop", cfg.namespace)
	assert.Equal(map[string]string{"env": "staging"}, cfg.globalTags)
	assert.Equal(80, cfg.sampleRate)
	assert.Equal(10*time.Second, cfg.flushInterval)
	assert.Equal(250, cfg.flushSize)
	assert.True(cfg.compression)
	assert.False(cfg.dryRun)
	assert.False(cfg.flushOnClose)
	assert.True(cfg.bufferFlushLength)

	assert.Equal([]aggregation.Kind{aggregation.Avg, aggregation.P95}, cfg.typeDefaults[Timer].Aggregations)
	assert.Equal(30, cfg.typeDefaults[Timer].AggregationFrequency)
	assert.Equal(map[string]string{"unit": "ms"}, cfg.typeDefaults[Timer].Tags)
	assert.Equal(map[string]string{"kind": "business"}, cfg.typeDefaults[Counter].Tags)
	assert.Equal([]aggregation.Kind{aggregation.Sum, aggregation.Count}, cfg.typeDefaults[Counter].Aggregations)
}

func TestParseConfigErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"syntax":          "transport: [api",
		"unknown-type":    "defaults:\n  histogram:\n    aggregations: [avg]\n",
		"bad-aggregation": "defaults:\n  timer:\n    aggregations: [median]\n",
		"bad-duration":    "flushInterval: soon\n",
		"bad-port-type":   "port: https\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			assert.Error(t, err)
		})
	}

	_, err := ParseConfig([]byte("defaults:\n  gauge:\n    aggregations: [nope]\n"))
	assert.ErrorIs(t, err, ErrInvalidTypeConfig)
}

func TestParseConfigInvalidFrequencyFailsNew(t *testing.T) {
	opts, err := ParseConfig([]byte("defaults:\n  gauge:\n    aggregationFrequency: 300\n"))
	require.NoError(t, err)
	_, err = New(opts...)
	assert.ErrorIs(t, err, ErrInvalidTypeConfig)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statful.yaml")
	require.NoError(t, os.WriteFile(path, []byte("namespace: fromfile\nflushSize: 5\n"), 0o600))

	opts, err := LoadConfigFile(path)
	require.NoError(t, err)
	c := newTestClient(t, append(opts, WithFlushSize(7))...)
	assert.Equal(t, "fromfile", c.cfg.namespace)
	// later options win
	assert.Equal(t, 7, c.cfg.flushSize)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
