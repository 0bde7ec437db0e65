// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (LoadMap)
//  2. Environment variables (DASHLINK_ prefix)
//  3. Configuration file (YAML)
//  4. Default values (LoadDefaults)
//
// Watcher reports changes to the configuration file so long-running
// processes can re-read settings that are safe to change at runtime.
package confloader
