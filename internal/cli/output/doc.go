// Package output renders gatekeep-cli results as a table, JSON or YAML.
package output
