// Package config holds gatekeep-cli defaults, read from ~/.gatekeep/cli.yaml
// and GATEKEEP_CLI_ environment variables. Command-line flags win over
// both.
package config
