// Package conditions checks host metrics before a scheduled run.
// A run is postponed or skipped while the host is busy.
package conditions

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// Config defines thresholds, nil or empty fields are not checked
type Config struct {
	CPUBelow      *int     `json:"cpu_below,omitempty"`
	MemoryBelow   *int     `json:"memory_below,omitempty"`
	LoadAvgBelow  *float64 `json:"load_avg_below,omitempty"`
	DiskFreeAbove *int     `json:"disk_free_above,omitempty"`
	DiskFreePath  string   `json:"disk_free_path,omitempty"`
	Custom        string   `json:"custom,omitempty"` // shell script, non-zero exit fails the check
}

// Empty returns true if nothing to check
func (c Config) Empty() bool {
	return c.CPUBelow == nil && c.MemoryBelow == nil && c.LoadAvgBelow == nil && c.DiskFreeAbove == nil && c.Custom == ""
}

// Metrics reads host usage, all values are percents except the load average
type Metrics interface {
	CPU(ctx context.Context) (float64, error)
	Memory(ctx context.Context) (float64, error)
	Load1(ctx context.Context) (float64, error)
	DiskUsed(ctx context.Context, path string) (float64, error)
}

// Checker evaluates Config against host metrics
type Checker struct {
	Metrics Metrics
}

// NewChecker makes checker reading metrics of this host
func NewChecker() *Checker {
	return &Checker{Metrics: HostMetrics{CPUInterval: time.Second}}
}

// rule is a single threshold, ok reports if the reading passes
type rule struct {
	read   func(ctx context.Context) (float64, error)
	ok     func(v float64) bool
	failed func(v float64) string
	what   string
}

// Check verifies all conditions, returns false with the reason of the first failed one
func (c *Checker) Check(ctx context.Context, conditions Config) (bool, string) {
	if conditions.Empty() {
		return true, ""
	}

	for _, r := range c.rules(conditions) {
		v, err := r.read(ctx)
		if err != nil {
			return false, fmt.Sprintf("failed to get %s: %v", r.what, err)
		}
		if !r.ok(v) {
			return false, r.failed(v)
		}
	}

	if conditions.Custom != "" {
		cmd := exec.CommandContext(ctx, "sh", "-c", conditions.Custom) //nolint:gosec // script set by the operator
		if err := cmd.Run(); err != nil {
			return false, fmt.Sprintf("custom check failed: %v", err)
		}
	}
	return true, ""
}

func (c *Checker) rules(cfg Config) []rule {
	var res []rule
	if cfg.CPUBelow != nil {
		limit := *cfg.CPUBelow
		res = append(res, rule{what: "cpu", read: c.Metrics.CPU,
			ok:     func(v float64) bool { return int(v) < limit },
			failed: func(v float64) string { return fmt.Sprintf("cpu at %d%%, threshold %d%%", int(v), limit) }})
	}
	if cfg.MemoryBelow != nil {
		limit := *cfg.MemoryBelow
		res = append(res, rule{what: "memory", read: c.Metrics.Memory,
			ok:     func(v float64) bool { return int(v) < limit },
			failed: func(v float64) string { return fmt.Sprintf("memory at %d%%, threshold %d%%", int(v), limit) }})
	}
	if cfg.LoadAvgBelow != nil {
		limit := *cfg.LoadAvgBelow
		res = append(res, rule{what: "load average", read: c.Metrics.Load1,
			ok:     func(v float64) bool { return v < limit },
			failed: func(v float64) string { return fmt.Sprintf("load at %.2f, threshold %.2f", v, limit) }})
	}
	if cfg.DiskFreeAbove != nil {
		limit, path := *cfg.DiskFreeAbove, cfg.DiskFreePath
		if path == "" {
			path = "/"
		}
		res = append(res, rule{what: "disk usage of " + path,
			read:   func(ctx context.Context) (float64, error) { return c.Metrics.DiskUsed(ctx, path) },
			ok:     func(v float64) bool { return 100-int(v) >= limit },
			failed: func(v float64) string { return fmt.Sprintf("disk free at %d%%, need %d%% on %s", 100-int(v), limit, path) }})
	}
	return res
}

// HostMetrics reads metrics with gopsutil
type HostMetrics struct {
	CPUInterval time.Duration // cpu usage is sampled over this interval
}

// CPU returns total cpu usage
func (h HostMetrics) CPU(ctx context.Context) (float64, error) {
	pcts, err := cpu.PercentWithContext(ctx, h.CPUInterval, false)
	if err != nil {
		return 0, err
	}
	if len(pcts) == 0 {
		return 0, errors.New("no cpu data")
	}
	return pcts[0], nil
}

// Memory returns used virtual memory
func (h HostMetrics) Memory(ctx context.Context) (float64, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return v.UsedPercent, nil
}

// Load1 returns one minute load average
func (h HostMetrics) Load1(ctx context.Context) (float64, error) {
	l, err := load.AvgWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return l.Load1, nil
}

// DiskUsed returns used space of the filesystem holding path
func (h HostMetrics) DiskUsed(ctx context.Context, path string) (float64, error) {
	u, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, err
	}
	return u.UsedPercent, nil
}
