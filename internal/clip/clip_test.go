package clip

import (
	"os"
	"strings"
	"testing"
)

type errFake string

func (e errFake) Error() string { return string(e) }

func resetStubs() func() {
	origNative := nativeWriteAll
	origOSC52 := osc52WriteAll
	return func() {
		nativeWriteAll = origNative
		osc52WriteAll = origOSC52
	}
}

func TestCopy_NativeSuccess(t *testing.T) {
	t.Cleanup(resetStubs())
	nativeWriteAll = func(_ string) error { return nil }
	osc52WriteAll = func(_ string) error {
		t.Fatal("osc52 should not be called when native succeeds")
		return nil
	}

	got, err := Copy("hello")
	if err != nil {
		t.Fatalf("Copy returned error: %v", err)
	}
	if got.Method != MethodNative {
		t.Fatalf("Method=%q, want %q", got.Method, MethodNative)
	}
	if got.FilePath != "" {
		t.Fatalf("FilePath=%q, want empty", got.FilePath)
	}
}

func TestCopy_OSC52Fallback(t *testing.T) {
	t.Cleanup(resetStubs())
	nativeWriteAll = func(_ string) error { return errFake("native failed") }
	osc52WriteAll = func(_ string) error { return nil }

	got, err := Copy("hello")
	if err != nil {
		t.Fatalf("Copy returned error: %v", err)
	}
	if got.Method != MethodOSC52 {
		t.Fatalf("Method=%q, want %q", got.Method, MethodOSC52)
	}
}

func TestCopy_FileFallback(t *testing.T) {
	t.Cleanup(resetStubs())
	nativeWriteAll = func(_ string) error { return errFake("native failed") }
	osc52WriteAll = func(_ string) error { return errFake("osc52 failed") }

	got, err := Copy("hello")
	if err != nil {
		t.Fatalf("Copy returned error: %v", err)
	}
	if got.Method != MethodFile {
		t.Fatalf("Method=%q, want %q", got.Method, MethodFile)
	}
	if got.FilePath == "" {
		t.Fatal("FilePath is empty")
	}
	t.Cleanup(func() { _ = os.Remove(got.FilePath) })

	b, err := os.ReadFile(got.FilePath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("file contents=%q, want %q", string(b), "hello")
	}

	info, err := os.Stat(got.FilePath)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		t.Fatalf("fallback file mode=%04o, want owner-only", perm)
	}
}

func TestWriteAllOSC52_RejectsEmptyText(t *testing.T) {
	if err := writeAllOSC52(""); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestWriteAllOSC52_RejectsOversizedText(t *testing.T) {
	// The TTY guard may fire before the size guard when stderr is not a
	// terminal; either way the write is refused.
	text := strings.Repeat("a", osc52LimitBytes+1)
	if err := writeAllOSC52(text); err == nil {
		t.Fatal("expected error for oversized text")
	}
}
