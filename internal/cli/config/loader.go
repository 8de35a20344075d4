package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yndnr/gatekeep/internal/infra/confloader"
)

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "GATEKEEP_CLI_"

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".gatekeep", "cli.yaml")
}

// Load reads the CLI configuration. An empty path means DefaultConfigPath.
// A missing file is not an error; defaults and the environment still apply.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg := Default()
	opts := []confloader.Option{confloader.WithEnvPrefix(EnvPrefix)}
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
