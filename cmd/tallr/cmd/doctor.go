package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallr-app/tallr/internal/diagnostics"
	"github.com/tallr-app/tallr/internal/tui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the tallr environment",
	Long:  "Verify the data directory, token file, daemon, and host resources.",
	RunE:  runDoctor,
}

var doctorJSON bool

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false,
		"print findings as JSON")
}

func runDoctor(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var pinger diagnostics.HealthPinger
	if cl, err := apiClient(cfg); err == nil {
		pinger = cl
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	doctor := diagnostics.NewDoctor(cfg.Data.Dir, tokenFilePath(cfg), pinger)
	checks := doctor.Run(ctx)
	metrics := diagnostics.CollectSystemMetrics(ctx, cfg.Data.Dir)

	if doctorJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]interface{}{
			"checks": checks,
			"system": metrics,
		}); err != nil {
			return err
		}
	} else {
		printChecks(checks)
		printSystem(metrics)
	}

	if diagnostics.Failed(checks) {
		return fmt.Errorf("environment check failed")
	}
	return nil
}

func printChecks(checks []diagnostics.Check) {
	fmt.Println("Checking environment...")
	fmt.Println()

	for _, c := range checks {
		var icon string
		switch c.Status {
		case diagnostics.StatusOK:
			icon = tui.OKStyle.Render("✓")
		case diagnostics.StatusWarn:
			icon = tui.WarnStyle.Render("⚠")
		default:
			icon = tui.FailStyle.Render("✗")
		}
		fmt.Printf("  %s %s: %s\n", icon, c.Name, c.Detail)
	}
	fmt.Println()
}

func printSystem(m *diagnostics.SystemMetrics) {
	fmt.Println("Host resources:")
	fmt.Println()

	if m.CPUModel != "" {
		fmt.Printf("  cpu:    %s (%d cores, %d threads)\n", m.CPUModel, m.CPUCores, m.CPUThreads)
	}
	fmt.Printf("  memory: %.0f/%.0f MB (%.1f%%)\n", m.MemUsedMB, m.MemTotalMB, m.MemPercent)
	fmt.Printf("  disk:   %.1f/%.1f GB (%.1f%%)\n", m.DiskUsedGB, m.DiskTotalGB, m.DiskPercent)
	fmt.Printf("  load:   %.2f %.2f %.2f\n", m.LoadAvg1, m.LoadAvg5, m.LoadAvg15)
	fmt.Println()
}
