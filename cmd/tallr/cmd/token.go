package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tallr-app/tallr/internal/clip"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print the daemon auth token",
	Long: `Print the shared secret wrappers use to authenticate against the daemon.

The token is minted on first use and stored in the data directory with
owner-only permissions. Export it as TALLR_TOKEN in wrapper environments.`,
	RunE: runToken,
}

var tokenCopy bool

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().BoolVarP(&tokenCopy, "copy", "c", false,
		"also copy the token to the clipboard")
}

func runToken(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	token, err := resolveToken(cfg)
	if err != nil {
		return fmt.Errorf("resolving auth token: %w", err)
	}

	fmt.Println(token)

	if tokenCopy {
		result, err := clip.Copy(token)
		if err != nil {
			return fmt.Errorf("copying token: %w", err)
		}
		switch result.Method {
		case clip.MethodNative:
			fmt.Fprintln(os.Stderr, "copied to clipboard")
		case clip.MethodOSC52:
			fmt.Fprintln(os.Stderr, "sent to terminal clipboard (OSC52)")
		case clip.MethodFile:
			fmt.Fprintf(os.Stderr, "no clipboard available; written to %s\n", result.FilePath)
		}
	}

	return nil
}
