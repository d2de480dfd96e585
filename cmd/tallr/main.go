package main

import (
	"fmt"
	"os"

	"github.com/tallr-app/tallr/cmd/tallr/cmd"
)

// Version information - set by goreleaser at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Inject version info into command package
	cmd.SetVersion(version, commit, date)

	// Execute root command. Cobra error printing is silenced, so the
	// single exit path reports failures here.
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
