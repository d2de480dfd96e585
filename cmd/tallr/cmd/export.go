package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallr-app/tallr/internal/config"
	"github.com/tallr-app/tallr/internal/core"
	"github.com/tallr-app/tallr/internal/logging"
	"github.com/tallr-app/tallr/internal/persist"
	"github.com/tallr-app/tallr/internal/snapshot"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump the session snapshot",
	Long: `Write the full session snapshot to stdout or a file.

Prefers live daemon state; falls back to the persisted session file when no
daemon is running.

Examples:
  tallr export > sessions.json
  tallr export --format yaml -o sessions.yaml`,
	RunE: runExport,
}

var (
	exportFormat string
	exportOutput string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", "json",
		"output format (json, yaml)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "",
		"output file (default: stdout)")
}

func runExport(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	format, err := snapshot.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	snap, err := fetchSnapshot(cfg)
	if err != nil {
		return err
	}

	out := os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	return snapshot.Export(out, snap, format)
}

// fetchSnapshot reads live state from the daemon, or the session file when
// the daemon is not reachable.
func fetchSnapshot(cfg *config.Config) (*core.Snapshot, error) {
	cl, err := apiClient(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap, err := cl.State(ctx)
	if err == nil {
		return snap, nil
	}
	fmt.Fprintln(os.Stderr, "daemon not reachable; exporting persisted state")

	mgr := persist.New(filepath.Join(cfg.Data.Dir, persist.SnapshotFileName), logging.NewNop())
	snap, err = mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("loading session file: %w", err)
	}
	return snap, nil
}
