package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/tallr-app/tallr/internal/auth"
	"github.com/tallr-app/tallr/internal/client"
	"github.com/tallr-app/tallr/internal/config"
	"github.com/tallr-app/tallr/internal/logging"
)

// loadConfig resolves configuration from flags, environment variables, and
// the optional config file, then validates it.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())

	path := cfgFile
	if path == "" {
		path = os.Getenv("TALLR_CONFIG")
	}
	if path != "" {
		loader.WithConfigFile(path)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
}

// tokenFilePath returns the shared secret location inside the data directory.
func tokenFilePath(cfg *config.Config) string {
	return filepath.Join(cfg.Data.Dir, auth.TokenFileName)
}

// resolveToken loads the shared secret the daemon honors, minting one if
// none exists yet. The daemon picks a minted token up from the same file.
func resolveToken(cfg *config.Config) (string, error) {
	gate := auth.NewGate(tokenFilePath(cfg), logging.NewNop())
	return gate.Token()
}

// apiClient builds a client for the configured daemon address.
func apiClient(cfg *config.Config) (*client.Client, error) {
	token, err := resolveToken(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolving auth token: %w", err)
	}
	return client.New("http://"+cfg.Server.Addr(), token), nil
}
