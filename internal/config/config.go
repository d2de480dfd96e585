// Package config loads daemon configuration from flags, environment and an
// optional YAML file.
package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all daemon configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Data    DataConfig    `mapstructure:"data"`
	Log     LogConfig     `mapstructure:"log"`
	Cleanup CleanupConfig `mapstructure:"cleanup"`
	Events  EventsConfig  `mapstructure:"events"`
	Debug   bool          `mapstructure:"debug"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the host:port bind address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DataConfig locates the data directory holding sessions, token and markers.
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CleanupConfig configures the expired-task sweep.
type CleanupConfig struct {
	Schedule    string        `mapstructure:"schedule"`
	DoneGrace   time.Duration `mapstructure:"done_grace"`
	IdleMax     time.Duration `mapstructure:"idle_max"`
	IdleEnabled bool          `mapstructure:"idle_enabled"`
}

// EventsConfig configures the in-process event bus.
type EventsConfig struct {
	Buffer int `mapstructure:"buffer"`
}

// DefaultDataDir resolves the per-user data directory.
func DefaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".tallr"
	}
	return filepath.Join(base, "tallr")
}
