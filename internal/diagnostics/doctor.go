// Package diagnostics implements the environment checks behind the doctor
// command.
package diagnostics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/tallr-app/tallr/internal/store"
)

// Status classifies a check outcome.
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Check is one doctor finding.
type Check struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail"`
}

// HealthPinger reaches a running daemon. *client.Client satisfies it.
type HealthPinger interface {
	Health(ctx context.Context) (*store.HealthStatus, error)
}

// Doctor inspects the environment a daemon runs in.
type Doctor struct {
	dataDir   string
	tokenPath string
	pinger    HealthPinger
}

// NewDoctor creates a Doctor for the given data directory and token file.
// pinger may be nil when no daemon address is known.
func NewDoctor(dataDir, tokenPath string, pinger HealthPinger) *Doctor {
	return &Doctor{dataDir: dataDir, tokenPath: tokenPath, pinger: pinger}
}

// Run executes all checks and returns their findings in a fixed order.
func (d *Doctor) Run(ctx context.Context) []Check {
	checks := []Check{
		d.checkDataDir(),
		d.checkTokenFile(),
		d.checkDiskSpace(),
	}
	if d.pinger != nil {
		checks = append(checks, d.checkDaemon(ctx))
	}
	return checks
}

func (d *Doctor) checkDataDir() Check {
	check := Check{Name: "data directory"}

	info, err := os.Stat(d.dataDir)
	switch {
	case os.IsNotExist(err):
		check.Status = StatusWarn
		check.Detail = fmt.Sprintf("%s does not exist yet; it is created on first run", d.dataDir)
		return check
	case err != nil:
		check.Status = StatusFail
		check.Detail = err.Error()
		return check
	case !info.IsDir():
		check.Status = StatusFail
		check.Detail = fmt.Sprintf("%s is not a directory", d.dataDir)
		return check
	}

	// Write probe: the daemon persists on every mutation.
	probe, err := os.CreateTemp(d.dataDir, ".doctor-*")
	if err != nil {
		check.Status = StatusFail
		check.Detail = fmt.Sprintf("not writable: %v", err)
		return check
	}
	probe.Close()
	os.Remove(probe.Name())

	check.Status = StatusOK
	check.Detail = d.dataDir
	return check
}

func (d *Doctor) checkTokenFile() Check {
	check := Check{Name: "auth token"}

	info, err := os.Stat(d.tokenPath)
	switch {
	case os.IsNotExist(err):
		check.Status = StatusWarn
		check.Detail = "no token file; one is generated when the daemon starts"
		return check
	case err != nil:
		check.Status = StatusFail
		check.Detail = err.Error()
		return check
	}

	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		check.Status = StatusWarn
		check.Detail = fmt.Sprintf("token file mode %04o is readable by others; expected 0600", perm)
		return check
	}

	check.Status = StatusOK
	check.Detail = d.tokenPath
	return check
}

func (d *Doctor) checkDiskSpace() Check {
	check := Check{Name: "disk space"}

	path := d.dataDir
	if _, err := os.Stat(path); err != nil {
		path = filepath.Dir(path)
	}
	usage, err := disk.Usage(path)
	if err != nil {
		check.Status = StatusWarn
		check.Detail = fmt.Sprintf("could not read usage: %v", err)
		return check
	}

	check.Detail = fmt.Sprintf("%.1f%% used (%.1f GB free)",
		usage.UsedPercent, float64(usage.Free)/1024/1024/1024)
	if usage.UsedPercent > 90 {
		check.Status = StatusWarn
		return check
	}
	check.Status = StatusOK
	return check
}

func (d *Doctor) checkDaemon(ctx context.Context) Check {
	check := Check{Name: "daemon"}

	health, err := d.pinger.Health(ctx)
	if err != nil {
		check.Status = StatusWarn
		check.Detail = fmt.Sprintf("not reachable: %v", err)
		return check
	}

	check.Status = StatusOK
	check.Detail = fmt.Sprintf("%s, %d tasks across %d projects",
		health.Status, health.Tasks, health.Projects)
	return check
}

// Failed reports whether any check failed outright.
func Failed(checks []Check) bool {
	for _, c := range checks {
		if c.Status == StatusFail {
			return true
		}
	}
	return false
}
