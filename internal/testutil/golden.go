// Package testutil holds shared test helpers.
package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var update = flag.Bool("update", false, "rewrite golden files with actual output")

// Golden compares test output against checked-in golden files.
// Run the tests with -update to rewrite the files after an
// intentional output change.
type Golden struct {
	t   *testing.T
	dir string
}

// NewGolden returns a helper rooted at dir, usually "testdata".
func NewGolden(t *testing.T, dir string) *Golden {
	return &Golden{t: t, dir: dir}
}

// Assert compares actual against the golden file <dir>/<name>.golden.
func (g *Golden) Assert(name string, actual []byte) {
	g.t.Helper()

	path := filepath.Join(g.dir, name+".golden")

	if *update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			g.t.Fatalf("creating golden dir: %v", err)
		}
		if err := os.WriteFile(path, actual, 0o644); err != nil {
			g.t.Fatalf("writing golden file: %v", err)
		}
		g.t.Logf("updated %s", path)
		return
	}

	want, err := os.ReadFile(path)
	if err != nil {
		g.t.Fatalf("reading golden file %s (run with -update to create it): %v", path, err)
	}

	if string(actual) != string(want) {
		g.t.Errorf("output differs from %s:\n--- want ---\n%s\n--- got ---\n%s", path, want, actual)
	}
}

// AssertString is Assert for string output.
func (g *Golden) AssertString(name, actual string) {
	g.t.Helper()
	g.Assert(name, []byte(actual))
}

var timestampRE = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?`)

// ScrubTimestamps replaces RFC 3339 style timestamps so output that
// embeds the current time still compares stably.
func ScrubTimestamps(s string) string {
	return timestampRE.ReplaceAllString(s, "[TIMESTAMP]")
}

// Normalize unifies line endings and strips trailing whitespace.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
