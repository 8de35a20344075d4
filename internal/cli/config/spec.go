package config

import "time"

// CLIConfig is the configuration for gatekeep-cli.
type CLIConfig struct {
	// Server is the gatekeep-server base URL used by "session check".
	Server string `koanf:"server"`
	// Output is the default output format: table, json or yaml.
	Output string `koanf:"output"`
	// Timeout bounds each HTTP request.
	Timeout time.Duration `koanf:"timeout"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  "http://localhost:8080",
		Output:  "table",
		Timeout: 30 * time.Second,
	}
}
