package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoaderDefaults(t *testing.T) {
	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 4317 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 4317)
	}
	if cfg.Server.Addr() != "127.0.0.1:4317" {
		t.Errorf("Server.Addr() = %q, want %q", cfg.Server.Addr(), "127.0.0.1:4317")
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "auto" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "auto")
	}

	if cfg.Cleanup.Schedule != "* * * * *" {
		t.Errorf("Cleanup.Schedule = %q, want %q", cfg.Cleanup.Schedule, "* * * * *")
	}
	if cfg.Cleanup.DoneGrace != 30*time.Second {
		t.Errorf("Cleanup.DoneGrace = %v, want %v", cfg.Cleanup.DoneGrace, 30*time.Second)
	}
	if cfg.Cleanup.IdleMax != time.Hour {
		t.Errorf("Cleanup.IdleMax = %v, want %v", cfg.Cleanup.IdleMax, time.Hour)
	}
	if cfg.Cleanup.IdleEnabled {
		t.Error("Cleanup.IdleEnabled = true, want false (default)")
	}

	if cfg.Events.Buffer != 100 {
		t.Errorf("Events.Buffer = %d, want %d", cfg.Events.Buffer, 100)
	}
	if cfg.Debug {
		t.Error("Debug = true, want false (default)")
	}
	if cfg.Data.Dir == "" {
		t.Error("Data.Dir is empty, want a resolved default")
	}
}

func TestLoaderEnvOverride(t *testing.T) {
	t.Setenv("TALLR_SERVER_PORT", "5000")
	t.Setenv("TALLR_LOG_LEVEL", "debug")
	t.Setenv("TALLR_CLEANUP_DONE_GRACE", "2m")
	t.Setenv("TALLR_DEBUG", "true")

	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 5000)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Cleanup.DoneGrace != 2*time.Minute {
		t.Errorf("Cleanup.DoneGrace = %v, want %v", cfg.Cleanup.DoneGrace, 2*time.Minute)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true from env")
	}
}

func TestLoaderConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 9999\ncleanup:\n  idle_enabled: true\n  idle_max: 30m\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	loader := NewLoader().WithConfigFile(path)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9999)
	}
	if !cfg.Cleanup.IdleEnabled {
		t.Error("Cleanup.IdleEnabled = false, want true from file")
	}
	if cfg.Cleanup.IdleMax != 30*time.Minute {
		t.Errorf("Cleanup.IdleMax = %v, want %v", cfg.Cleanup.IdleMax, 30*time.Minute)
	}
	// Values the file does not mention keep their defaults.
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want default %q", cfg.Server.Host, "127.0.0.1")
	}
	if loader.ConfigFile() != path {
		t.Errorf("ConfigFile() = %q, want %q", loader.ConfigFile(), path)
	}
}

func TestLoaderDataDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TALLR_DATA_DIR", dir)

	loader := NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Data.Dir != dir {
		t.Errorf("Data.Dir = %q, want %q", cfg.Data.Dir, dir)
	}
}

func TestLoaderBrokenConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	_, err := NewLoader().WithConfigFile(path).Load()
	if err == nil {
		t.Fatal("Load() error = nil, want parse failure")
	}
}
