// Package config provides server configuration for gatekeep.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values and normalization
//   - legacy.go: Unprefixed environment variables (NORDLYS_SECRET, ...)
//   - verify.go: Business validation
//   - sanitize.go: Log sanitization (hide sensitive values)
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and GATEKEEP_ environment variables.
package config
