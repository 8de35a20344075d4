// Package confloader loads configuration from a YAML file and the
// environment using koanf, and watches the file for changes.
//
// Priority (highest to lowest):
//
//  1. Map overrides (LoadMap, typically from flags)
//  2. Environment variables (GATEKEEP_ prefix)
//  3. Configuration file
//  4. Values already present in the target struct
package confloader
