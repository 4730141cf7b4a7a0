// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package statful

import (
	"fmt"
	"os"
	"time"

	"github.com/statful/statful-client-go/internal/aggregation"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML representation of the client options.
type fileConfig struct {
	Transport         string                    `yaml:"transport"`
	Host              string                    `yaml:"host"`
	Port              int                       `yaml:"port"`
	Token             string                    `yaml:"token"`
	Protocol          string                    `yaml:"protocol"`
	BasePath          string                    `yaml:"basePath"`
	Timeout           time.Duration             `yaml:"timeout"`
	App               string                    `yaml:"app"`
	Namespace         string                    `yaml:"namespace"`
	Tags              map[string]string         `yaml:"tags"`
	SampleRate        int                       `yaml:"sampleRate"`
	FlushInterval     time.Duration             `yaml:"flushInterval"`
	FlushSize         int                       `yaml:"flushSize"`
	Compression       *bool                     `yaml:"compression"`
	DryRun            *bool                     `yaml:"dryRun"`
	Debug             *bool                     `yaml:"debug"`
	FlushOnClose      *bool                     `yaml:"flushOnClose"`
	BufferFlushLength *bool                     `yaml:"bufferFlushLength"`
	DogstatsdAddr     string                    `yaml:"dogstatsdAddr"`
	Defaults          map[string]fileTypeConfig `yaml:"defaults"`
}

type fileTypeConfig struct {
	Tags                 map[string]string `yaml:"tags"`
	Aggregations         []string          `yaml:"aggregations"`
	AggregationFrequency int               `yaml:"aggregationFrequency"`
}

// LoadConfigFile reads the YAML file at path and returns the options it
// describes. Options given to New after these take precedence.
func LoadConfigFile(path string) ([]ClientOption, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	opts, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

// ParseConfig returns the options described by the YAML document data.
func ParseConfig(data []byte) ([]ClientOption, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}
	var opts []ClientOption
	add := func(ok bool, o ClientOption) {
		if ok {
			opts = append(opts, o)
		}
	}
	add(fc.Transport != "", WithTransport(Transport(fc.Transport)))
	add(fc.Host != "", WithHost(fc.Host))
	add(fc.Port != 0, WithPort(fc.Port))
	add(fc.Token != "", WithToken(fc.Token))
	add(fc.Protocol != "", WithProtocol(fc.Protocol))
	add(fc.BasePath != "", WithBasePath(fc.BasePath))
	add(fc.Timeout != 0, WithTimeout(fc.Timeout))
	add(fc.App != "", WithApp(fc.App))
	add(fc.Namespace != "", WithNamespace(fc.Namespace))
	add(len(fc.Tags) > 0, WithGlobalTags(fc.Tags))
	add(fc.SampleRate != 0, WithSampleRate(fc.SampleRate))
	add(fc.FlushInterval != 0, WithFlushInterval(fc.FlushInterval))
	add(fc.FlushSize != 0, WithFlushSize(fc.FlushSize))
	add(fc.DogstatsdAddr != "", WithDogstatsdAddr(fc.DogstatsdAddr))
	if fc.Compression != nil {
		opts = append(opts, WithCompression(*fc.Compression))
	}
	if fc.DryRun != nil {
		opts = append(opts, WithDryRun(*fc.DryRun))
	}
	if fc.Debug != nil {
		opts = append(opts, WithDebugMode(*fc.Debug))
	}
	if fc.FlushOnClose != nil {
		opts = append(opts, WithFlushOnClose(*fc.FlushOnClose))
	}
	if fc.BufferFlushLength != nil {
		opts = append(opts, WithBufferFlushLength(*fc.BufferFlushLength))
	}
	for name, d := range fc.Defaults {
		t, err := ParseMetricType(name)
		if err != nil {
			return nil, err
		}
		kinds, err := aggregation.ParseKinds(d.Aggregations)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTypeConfig, name, err)
		}
		opts = append(opts, WithTypeDefaults(t, TypeConfig{
			Tags:                 d.Tags,
			Aggregations:         kinds,
			AggregationFrequency: d.AggregationFrequency,
		}))
	}
	return opts, nil
}
