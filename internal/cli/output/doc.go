// Package output renders command results and the toast surface.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned tables for structs, slices and maps
//   - json.go, yaml.go: machine-readable output
//   - toast.go: transient warnings written to the terminal
package output
