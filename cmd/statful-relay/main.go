// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// statful-relay reads metric lines from stdin and forwards them through a
// buffered statful client. Each input line must already be in the collector
// wire format:
//
//	<namespace>.<name>[,tag=value]* <value> <timestamp> [aggregations,frequency]
//
// Lines are flushed on the configured interval and when stdin is closed.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	statfullogrus "github.com/statful/statful-client-go/contrib/sirupsen/logrus"
	"github.com/statful/statful-client-go/internal"
	"github.com/statful/statful-client-go/internal/aggregation"
	"github.com/statful/statful-client-go/internal/version"
	"github.com/statful/statful-client-go/plugins/systemstats"
	"github.com/statful/statful-client-go/statful"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	config        string
	transport     string
	host          string
	port          int
	token         string
	protocol      string
	namespace     string
	app           string
	tags          []string
	sampleRate    int
	flushInterval time.Duration
	flushSize     int
	compression   bool
	dryRun        bool
	debug         bool
	jsonLogs      bool
	systemStats   bool
	aggregation   string
	frequency     int
	version       bool
}

func (f *flags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.config, "config", "c", "", "YAML configuration file")
	fs.StringVarP(&f.transport, "transport", "t", "", "transport: udp or api")
	fs.StringVar(&f.host, "host", "", "collector host")
	fs.IntVar(&f.port, "port", 0, "collector port")
	fs.StringVar(&f.token, "token", "", "API token")
	fs.StringVar(&f.protocol, "protocol", "", "API scheme")
	fs.StringVar(&f.namespace, "namespace", "", "metric namespace")
	fs.StringVar(&f.app, "app", "", "value of the app tag")
	fs.StringSliceVar(&f.tags, "tag", nil, "global tag as key:value, repeatable")
	fs.IntVar(&f.sampleRate, "sample-rate", 0, "percentage of lines kept, in [1,100]")
	fs.DurationVar(&f.flushInterval, "flush-interval", 0, "flush period")
	fs.IntVar(&f.flushSize, "flush-size", 0, "buffered lines that trigger a flush")
	fs.BoolVar(&f.compression, "compression", false, "gzip API payloads")
	fs.BoolVar(&f.dryRun, "dry-run", false, "log payloads instead of sending them")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&f.jsonLogs, "json-logs", false, "log as JSON")
	fs.BoolVar(&f.systemStats, "system-stats", false, "report process and host metrics")
	fs.StringVar(&f.aggregation, "aggregation", "", "send lines as pre-aggregated with this kind")
	fs.IntVar(&f.frequency, "frequency", aggregation.DefaultFrequency, "frequency in seconds of pre-aggregated lines")
	fs.BoolVar(&f.version, "version", false, "print the version and exit")
}

// options returns the client options for the flags set explicitly on the
// command line. They are applied after the config file.
func (f *flags) options(fs *pflag.FlagSet) []statful.ClientOption {
	var opts []statful.ClientOption
	set := func(name string, opt statful.ClientOption) {
		if fs.Changed(name) {
			opts = append(opts, opt)
		}
	}
	set("transport", statful.WithTransport(statful.Transport(strings.ToLower(f.transport))))
	set("host", statful.WithHost(f.host))
	set("port", statful.WithPort(f.port))
	set("token", statful.WithToken(f.token))
	set("protocol", statful.WithProtocol(f.protocol))
	set("namespace", statful.WithNamespace(f.namespace))
	set("app", statful.WithApp(f.app))
	set("sample-rate", statful.WithSampleRate(f.sampleRate))
	set("flush-interval", statful.WithFlushInterval(f.flushInterval))
	set("flush-size", statful.WithFlushSize(f.flushSize))
	set("compression", statful.WithCompression(f.compression))
	set("dry-run", statful.WithDryRun(f.dryRun))
	set("debug", statful.WithDebugMode(f.debug))
	for _, t := range f.tags {
		internal.ForEachStringTag(t, func(k, v string) {
			opts = append(opts, statful.WithGlobalTag(k, v))
		})
	}
	if f.systemStats {
		opts = append(opts, statful.WithPlugin(systemstats.New(systemstats.All())))
	}
	return opts
}

func run(ctx context.Context, args []string, stdin io.Reader, stderr io.Writer) error {
	var f flags
	fs := pflag.NewFlagSet("statful-relay", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if f.version {
		fmt.Fprintln(stderr, version.UserAgent)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	var (
		kind  aggregation.Kind
		freq  aggregation.Frequency
		aggOn = f.aggregation != ""
	)
	if aggOn {
		var err error
		if kind, err = aggregation.ParseKind(f.aggregation); err != nil {
			return err
		}
		if freq, err = aggregation.FrequencyOf(f.frequency); err != nil {
			return err
		}
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	if f.jsonLogs {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if f.debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	opts := []statful.ClientOption{statful.WithLogger(statfullogrus.New(logger))}
	if f.config != "" {
		fileOpts, err := statful.LoadConfigFile(f.config)
		if err != nil {
			return err
		}
		opts = append(opts, fileOpts...)
	}
	opts = append(opts, f.options(fs)...)

	c, err := statful.New(opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				scanErr <- nil
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return c.Close()
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return err
				}
				return c.Close()
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if aggOn {
				c.AggregatedPutRaw(line, kind, freq)
			} else {
				c.PutRaw(line)
			}
		}
	}
}
