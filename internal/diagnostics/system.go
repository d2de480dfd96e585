package diagnostics

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemMetrics is a point-in-time snapshot of host resources.
type SystemMetrics struct {
	CPUModel   string `json:"cpu_model"`
	CPUCores   int    `json:"cpu_cores"`
	CPUThreads int    `json:"cpu_threads"`

	MemTotalMB float64 `json:"mem_total_mb"`
	MemUsedMB  float64 `json:"mem_used_mb"`
	MemPercent float64 `json:"mem_percent"`

	DiskTotalGB float64 `json:"disk_total_gb"`
	DiskUsedGB  float64 `json:"disk_used_gb"`
	DiskPercent float64 `json:"disk_percent"`

	LoadAvg1  float64 `json:"load_avg_1"`
	LoadAvg5  float64 `json:"load_avg_5"`
	LoadAvg15 float64 `json:"load_avg_15"`
}

// CollectSystemMetrics gathers host metrics. Disk usage is measured at
// dataDir, where the session file lives. Probes that fail leave their
// fields zeroed rather than aborting the whole snapshot.
func CollectSystemMetrics(ctx context.Context, dataDir string) *SystemMetrics {
	m := &SystemMetrics{}

	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		m.CPUModel = infos[0].ModelName
	}
	if cores, err := cpu.CountsWithContext(ctx, false); err == nil {
		m.CPUCores = cores
	}
	if threads, err := cpu.CountsWithContext(ctx, true); err == nil {
		m.CPUThreads = threads
	} else {
		m.CPUThreads = runtime.NumCPU()
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		m.MemTotalMB = float64(vm.Total) / 1024 / 1024
		m.MemUsedMB = float64(vm.Used) / 1024 / 1024
		m.MemPercent = vm.UsedPercent
	}

	if usage, err := disk.UsageWithContext(ctx, dataDir); err == nil {
		m.DiskTotalGB = float64(usage.Total) / 1024 / 1024 / 1024
		m.DiskUsedGB = float64(usage.Used) / 1024 / 1024 / 1024
		m.DiskPercent = usage.UsedPercent
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		m.LoadAvg1 = avg.Load1
		m.LoadAvg5 = avg.Load5
		m.LoadAvg15 = avg.Load15
	}

	return m
}
