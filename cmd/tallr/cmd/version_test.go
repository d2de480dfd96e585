package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCommand(t *testing.T) {
	SetVersion("v1.2.3", "abc123def", "2025-06-15")

	output := captureStdout(t, func() {
		versionCmd.Run(versionCmd, []string{})
	})

	assert.Contains(t, output, "tallr v1.2.3")
	assert.Contains(t, output, "commit: abc123def")
	assert.Contains(t, output, "built:  2025-06-15")
}

func TestVersionCommandProperties(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
	assert.NotNil(t, versionCmd.Run)
}

func TestSetGetVersion(t *testing.T) {
	SetVersion("test-version", "test-commit", "test-date")
	assert.Equal(t, "test-version", GetVersion())
}
