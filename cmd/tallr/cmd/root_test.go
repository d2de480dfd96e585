package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecuteHelp(t *testing.T) {
	rootCmd.SetArgs([]string{"--help"})
	defer rootCmd.SetArgs(nil)

	err := Execute()
	assert.NoError(t, err)
}

func TestPersistentFlagsRegistered(t *testing.T) {
	for _, name := range []string{"config", "data-dir", "log-level", "log-format"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "missing persistent flag --%s", name)
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"serve", "status", "watch", "token", "export", "doctor", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestRootDefaultsToStatus(t *testing.T) {
	assert.NotNil(t, rootCmd.RunE, "bare 'tallr' should run the status view")
}
