// Package config provides CLI configuration for dashlink.
//
//   - spec.go: CLIConfig struct (~/.dashlink/cli.yaml) and defaults
//   - loader.go: layered loading, saving and home expansion
//   - verify.go: validation and secret masking
package config
