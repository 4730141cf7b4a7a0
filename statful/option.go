// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package statful

import (
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/statful/statful-client-go/internal"
	"github.com/statful/statful-client-go/internal/log"

	"github.com/benbjohnson/clock"
)

// Transport selects how flushed metrics reach the collector.
type Transport string

const (
	// TransportUDP sends plain-text datagrams to a relay.
	TransportUDP Transport = "udp"
	// TransportAPI sends HTTP PUT requests to the collector API.
	TransportAPI Transport = "api"
)

const (
	defaultUDPHost       = "127.0.0.1"
	defaultUDPPort       = 2013
	defaultAPIHost       = "api.statful.com"
	defaultAPIPort       = 443
	defaultProtocol      = "https"
	defaultBasePath      = "/tel/v2.0/metrics"
	defaultTimeout       = 2 * time.Second
	defaultNamespace     = "application"
	defaultSampleRate    = 100
	defaultFlushInterval = 3 * time.Second
	defaultFlushSize     = 1000
)

// config holds the client configuration.
type config struct {
	// transport selects UDP or the HTTP API.
	transport Transport

	// host and port of the collector. Zero values pick the transport default.
	host string
	port int

	// token is sent in the M-Api-Token header.
	token string

	// protocol, basePath and timeout apply to the API transport only.
	protocol string
	basePath string
	timeout  time.Duration

	// app, when set, is added as the "app" tag of every metric.
	app string

	// namespace prefixes every metric name.
	namespace string

	// globalTags are applied to all metrics and take precedence over any
	// other tag with the same key.
	globalTags map[string]string

	sampleRate    int
	flushInterval time.Duration
	flushSize     int
	compression   bool

	// dryRun logs flushed payloads instead of sending them.
	dryRun bool

	// debug enables debug logging.
	debug bool

	typeDefaults  [numMetricTypes]TypeConfig
	typeOverrides map[MetricType]TypeConfig

	flushOnClose      bool
	bufferFlushLength bool

	plugins []Plugin

	logger log.Logger

	// statsd receives the client's own health metrics.
	statsd        internal.StatsdClient
	dogstatsdAddr string

	clock      clock.Clock
	httpClient *http.Client

	// draw returns a uniform value in [0,1) used by the sampler.
	draw func() float64
}

// ClientOption represents a function that can be provided as a parameter to New.
type ClientOption func(*config)

// defaults sets the default values for a config.
func defaults(c *config) {
	c.transport = TransportUDP
	c.protocol = defaultProtocol
	c.basePath = defaultBasePath
	c.timeout = defaultTimeout
	c.namespace = defaultNamespace
	c.sampleRate = defaultSampleRate
	c.flushInterval = defaultFlushInterval
	c.flushSize = defaultFlushSize
	c.typeDefaults = defaultTypeConfigs()
	c.flushOnClose = true
	c.clock = clock.New()
	c.draw = rand.Float64
}

// fromEnv overrides the defaults with the STATFUL_* environment variables.
func fromEnv(c *config) {
	c.transport = Transport(strings.ToLower(internal.StringEnv("STATFUL_TRANSPORT", string(c.transport))))
	c.host = internal.StringEnv("STATFUL_HOST", c.host)
	c.port = internal.IntEnv("STATFUL_PORT", c.port)
	c.token = internal.StringEnv("STATFUL_API_TOKEN", c.token)
	c.app = internal.StringEnv("STATFUL_APP", c.app)
	c.namespace = internal.StringEnv("STATFUL_NAMESPACE", c.namespace)
	c.sampleRate = internal.IntEnv("STATFUL_SAMPLE_RATE", c.sampleRate)
	c.flushInterval = internal.DurationEnv("STATFUL_FLUSH_INTERVAL", c.flushInterval)
	c.flushSize = internal.IntEnv("STATFUL_FLUSH_SIZE", c.flushSize)
	c.compression = internal.BoolEnv("STATFUL_COMPRESSION", c.compression)
	c.dryRun = internal.BoolEnv("STATFUL_DRY_RUN", c.dryRun)
	c.debug = internal.BoolEnv("STATFUL_DEBUG", c.debug)
	c.dogstatsdAddr = internal.StringEnv("STATFUL_DOGSTATSD_ADDR", c.dogstatsdAddr)
	internal.ForEachStringTag(internal.StringEnv("STATFUL_GLOBAL_TAGS", ""), func(k, v string) {
		WithGlobalTag(k, v)(c)
	})
}

// newConfig builds a config from defaults, the environment and opts, and
// validates it.
func newConfig(opts ...ClientOption) (*config, error) {
	c := new(config)
	defaults(c)
	fromEnv(c)
	for _, fn := range opts {
		fn(c)
	}
	switch c.transport {
	case TransportUDP:
		if c.host == "" {
			c.host = defaultUDPHost
		}
		if c.port == 0 {
			c.port = defaultUDPPort
		}
	case TransportAPI:
		if c.host == "" {
			c.host = defaultAPIHost
		}
		if c.port == 0 {
			c.port = defaultAPIPort
		}
		if c.token == "" {
			return nil, ErrMissingToken
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidTransport, c.transport)
	}
	if c.sampleRate < 1 || c.sampleRate > 100 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, c.sampleRate)
	}
	if c.flushSize <= 0 {
		log.Warn("Invalid flush size %d, using %d", c.flushSize, defaultFlushSize)
		c.flushSize = defaultFlushSize
	}
	if c.flushInterval <= 0 {
		log.Warn("Invalid flush interval %s, using %s", c.flushInterval, defaultFlushInterval)
		c.flushInterval = defaultFlushInterval
	}
	for t := MetricType(0); t < numMetricTypes; t++ {
		o, ok := c.typeOverrides[t]
		if !ok {
			continue
		}
		if err := o.validate(); err != nil {
			return nil, err
		}
		c.typeDefaults[t] = c.typeDefaults[t].override(o)
	}
	return c, nil
}

// WithTransport selects the transport. The default is TransportUDP.
func WithTransport(t Transport) ClientOption {
	return func(c *config) {
		c.transport = t
	}
}

// WithHost sets the collector host. The default is 127.0.0.1 for UDP and
// api.statful.com for the API.
func WithHost(host string) ClientOption {
	return func(c *config) {
		c.host = host
	}
}

// WithPort sets the collector port. The default is 2013 for UDP and 443 for
// the API.
func WithPort(port int) ClientOption {
	return func(c *config) {
		c.port = port
	}
}

// WithToken sets the API token. It is required by TransportAPI.
func WithToken(token string) ClientOption {
	return func(c *config) {
		c.token = token
	}
}

// WithProtocol sets the API URL scheme. The default is https.
func WithProtocol(protocol string) ClientOption {
	return func(c *config) {
		c.protocol = protocol
	}
}

// WithBasePath sets the API path non-aggregated metrics are sent to. The
// default is /tel/v2.0/metrics.
func WithBasePath(path string) ClientOption {
	return func(c *config) {
		c.basePath = path
	}
}

// WithTimeout sets the API request timeout. The default is 2s.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *config) {
		c.timeout = d
	}
}

// WithApp tags every metric with app=name.
func WithApp(name string) ClientOption {
	return func(c *config) {
		c.app = name
	}
}

// WithNamespace sets the prefix of every metric name. The default is
// "application".
func WithNamespace(ns string) ClientOption {
	return func(c *config) {
		c.namespace = ns
	}
}

// WithGlobalTags adds tags applied to every metric.
func WithGlobalTags(tags map[string]string) ClientOption {
	return func(c *config) {
		for k, v := range tags {
			WithGlobalTag(k, v)(c)
		}
	}
}

// WithGlobalTag adds a key/value pair applied to every metric.
func WithGlobalTag(k, v string) ClientOption {
	return func(c *config) {
		if c.globalTags == nil {
			c.globalTags = make(map[string]string)
		}
		c.globalTags[k] = v
	}
}

// WithSampleRate sets the percentage, in [1,100], of non-aggregated metrics
// that are kept. The default is 100.
func WithSampleRate(rate int) ClientOption {
	return func(c *config) {
		c.sampleRate = rate
	}
}

// WithFlushInterval sets the period of the background flush. The default
// is 3s.
func WithFlushInterval(d time.Duration) ClientOption {
	return func(c *config) {
		c.flushInterval = d
	}
}

// WithFlushSize sets the number of buffered lines that triggers a flush. The
// default is 1000.
func WithFlushSize(n int) ClientOption {
	return func(c *config) {
		c.flushSize = n
	}
}

// WithCompression enables gzip compression of API payloads.
func WithCompression(enabled bool) ClientOption {
	return func(c *config) {
		c.compression = enabled
	}
}

// WithDryRun logs flushed payloads at info level instead of sending them.
// The log level is shared by every client in the process and is raised to
// info if it was above it.
func WithDryRun(enabled bool) ClientOption {
	return func(c *config) {
		c.dryRun = enabled
	}
}

// WithDebugMode enables debug logging. The log level is shared by every
// client in the process and is not restored by Close.
func WithDebugMode(enabled bool) ClientOption {
	return func(c *config) {
		c.debug = enabled
	}
}

// WithTypeDefaults overrides the defaults of the given metric type. Fields
// left at their zero value keep the built-in default. New fails with
// ErrInvalidTypeConfig if tc is invalid.
func WithTypeDefaults(t MetricType, tc TypeConfig) ClientOption {
	return func(c *config) {
		if c.typeOverrides == nil {
			c.typeOverrides = make(map[MetricType]TypeConfig)
		}
		c.typeOverrides[t] = tc
	}
}

// WithFlushOnClose controls whether Close flushes buffered metrics. The
// default is true.
func WithFlushOnClose(enabled bool) ClientOption {
	return func(c *config) {
		c.flushOnClose = enabled
	}
}

// WithBufferFlushLength reports the size of each buffer as
// buffer.flush_length on every flush.
func WithBufferFlushLength(enabled bool) ClientOption {
	return func(c *config) {
		c.bufferFlushLength = enabled
	}
}

// WithPlugin registers a plugin that reports system metrics.
func WithPlugin(p Plugin) ClientOption {
	return func(c *config) {
		c.plugins = append(c.plugins, p)
	}
}

// WithLogger sets the logger used by the client. Logging is process-wide:
// the most recently created client that is still open and was given a
// logger receives the messages of every client. Close removes only the
// logger its own client installed.
func WithLogger(l log.Logger) ClientOption {
	return func(c *config) {
		c.logger = l
	}
}

// WithStatsd sets the client receiving health metrics about the client
// itself. It is closed by Close.
func WithStatsd(s internal.StatsdClient) ClientOption {
	return func(c *config) {
		c.statsd = s
	}
}

// WithDogstatsdAddr sends health metrics to the dogstatsd server at addr.
func WithDogstatsdAddr(addr string) ClientOption {
	return func(c *config) {
		c.dogstatsdAddr = addr
	}
}

// WithClock sets the clock driving timestamps and the flush ticker.
func WithClock(clk clock.Clock) ClientOption {
	return func(c *config) {
		c.clock = clk
	}
}

// WithHTTPClient sets the HTTP client used by the API transport. Its
// Timeout takes precedence over WithTimeout.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *config) {
		c.httpClient = client
	}
}

// WithRandSource sets the function drawing uniform values in [0,1) for
// sampling.
func WithRandSource(draw func() float64) ClientOption {
	return func(c *config) {
		c.draw = draw
	}
}
