// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package systemstats provides a plugin reporting process and host metrics
// on every flush of a statful client.
//
//	c, err := statful.New(statful.WithPlugin(systemstats.New(systemstats.All())))
package systemstats

import (
	"os"
	"runtime"
	"time"

	"github.com/statful/statful-client-go/internal/aggregation"
	"github.com/statful/statful-client-go/internal/log"
	"github.com/statful/statful-client-go/statful"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Config selects the metrics and host tags reported by the plugin.
type Config struct {
	ProcessUptime          bool
	ProcessMemoryUsage     bool
	ProcessMemoryUsagePerc bool
	OSCPUUsage             bool
	OSUptime               bool
	OSTotalMemory          bool
	OSFreeMemory           bool
	Goroutines             bool

	TagHostname     bool
	TagPlatform     bool
	TagArchitecture bool
	TagGoVersion    bool
}

// All returns a Config enabling every metric and tag.
func All() Config {
	return Config{
		ProcessUptime:          true,
		ProcessMemoryUsage:     true,
		ProcessMemoryUsagePerc: true,
		OSCPUUsage:             true,
		OSUptime:               true,
		OSTotalMemory:          true,
		OSFreeMemory:           true,
		Goroutines:             true,
		TagHostname:            true,
		TagPlatform:            true,
		TagArchitecture:        true,
		TagGoVersion:           true,
	}
}

// overridden in tests
var (
	virtualMemory = mem.VirtualMemory
	hostUptime    = host.Uptime
	hostInfo      = host.Info
	cpuPercent    = cpu.Percent
	numGoroutine  = runtime.NumGoroutine
	now           = time.Now
	selfProcess   = func() (processStats, error) {
		p, err := process.NewProcess(int32(os.Getpid()))
		if err != nil {
			return nil, err
		}
		return p, nil
	}
)

// processStats is the subset of *process.Process used by the plugin.
type processStats interface {
	CreateTime() (int64, error)
	MemoryInfo() (*process.MemoryInfoStat, error)
}

var lastAggregations = statful.Aggregations(aggregation.Avg, aggregation.Last)

// Plugin reports system metrics. It implements statful.Plugin.
type Plugin struct {
	cfg     Config
	tags    map[string]string
	proc    processStats
	started time.Time
}

var _ statful.Plugin = (*Plugin)(nil)

// New returns a plugin reporting the metrics enabled in cfg.
func New(cfg Config) *Plugin {
	return &Plugin{cfg: cfg}
}

// Init resolves the host tags and the current process.
func (p *Plugin) Init(_ statful.Reporter) error {
	p.tags = map[string]string{}
	if p.cfg.TagHostname || p.cfg.TagPlatform {
		info, err := hostInfo()
		if err != nil {
			log.Warn("systemstats: cannot read host info: %v", err)
		} else {
			if p.cfg.TagHostname {
				p.tags["hostname"] = info.Hostname
			}
			if p.cfg.TagPlatform {
				p.tags["platform"] = info.OS
			}
		}
	}
	if p.cfg.TagArchitecture {
		p.tags["architecture"] = runtime.GOARCH
	}
	if p.cfg.TagGoVersion {
		p.tags["go_version"] = runtime.Version()
	}
	p.started = now()
	proc, err := selfProcess()
	if err != nil {
		log.Warn("systemstats: cannot inspect current process: %v", err)
		return nil
	}
	p.proc = proc
	if ms, err := proc.CreateTime(); err == nil {
		p.started = time.UnixMilli(ms)
	}
	return nil
}

// Flush reports the enabled metrics. Metrics whose source fails are skipped.
func (p *Plugin) Flush(r statful.Reporter) {
	put := func(name string, value float64, unit string) {
		opts := []statful.MetricOption{lastAggregations, statful.Tags(p.tags)}
		if unit != "" {
			opts = append(opts, statful.Tag("unit", unit))
		}
		r.PutSystem(name, value, opts...)
	}

	if p.cfg.ProcessUptime {
		put("process.uptime", float64(now().Sub(p.started).Milliseconds()), "ms")
	}

	var vm *mem.VirtualMemoryStat
	if p.cfg.ProcessMemoryUsagePerc || p.cfg.OSTotalMemory || p.cfg.OSFreeMemory {
		var err error
		if vm, err = virtualMemory(); err != nil {
			log.Debug("systemstats: cannot read virtual memory: %v", err)
		}
	}
	if (p.cfg.ProcessMemoryUsage || p.cfg.ProcessMemoryUsagePerc) && p.proc != nil {
		if mi, err := p.proc.MemoryInfo(); err != nil {
			log.Debug("systemstats: cannot read process memory: %v", err)
		} else {
			if p.cfg.ProcessMemoryUsage {
				put("process.memory.usage", float64(mi.RSS), "byte")
			}
			if p.cfg.ProcessMemoryUsagePerc && vm != nil && vm.Total > 0 {
				put("process.memory.usage.perc", float64(mi.RSS)*100/float64(vm.Total), "")
			}
		}
	}
	if vm != nil {
		if p.cfg.OSTotalMemory {
			put("os.memory.total", float64(vm.Total), "byte")
		}
		if p.cfg.OSFreeMemory {
			put("os.memory.free", float64(vm.Free), "byte")
		}
	}
	if p.cfg.OSUptime {
		if up, err := hostUptime(); err != nil {
			log.Debug("systemstats: cannot read host uptime: %v", err)
		} else {
			put("os.uptime", float64(up*1000), "ms")
		}
	}
	if p.cfg.OSCPUUsage {
		if pct, err := cpuPercent(0, false); err != nil || len(pct) == 0 {
			log.Debug("systemstats: cannot read cpu usage: %v", err)
		} else {
			put("os.cpu.usage", pct[0], "percent")
		}
	}
	if p.cfg.Goroutines {
		put("runtime.goroutines", float64(numGoroutine()), "")
	}
}
