package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallr-app/tallr/internal/tui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tracked sessions",
	Long: `Print a one-shot view of every tracked session.

Reads live state from the daemon; fails when no daemon is running.

Examples:
  # All sessions
  tallr status

  # Only sessions matching a project or agent name
  tallr status --filter widgets

  # Raw snapshot for scripting
  tallr status --json | jq '.tasks'`,
	RunE: runStatus,
}

var (
	statusJSON   bool
	statusFilter string
)

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusJSON, "json", false,
		"print the raw snapshot as JSON")
	statusCmd.Flags().StringVarP(&statusFilter, "filter", "f", "",
		"fuzzy-filter sessions by project, agent, or title")
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cl, err := apiClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap, err := cl.State(ctx)
	if err != nil {
		return fmt.Errorf("reading daemon state (is 'tallr serve' running?): %w", err)
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	rows := tui.Filter(tui.BuildRows(snap, time.Now()), statusFilter)
	fmt.Print(tui.RenderTable(rows))
	return nil
}
