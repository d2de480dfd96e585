package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tallr-app/tallr/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch sessions live",
	Long: `Open a live view of tracked sessions that refreshes automatically.

Press q to quit, r to force a refresh.`,
	RunE: runWatch,
}

var watchInterval time.Duration

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second,
		"poll interval")
}

func runWatch(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cl, err := apiClient(cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewWatch(cl, watchInterval), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running watch view: %w", err)
	}
	return nil
}
