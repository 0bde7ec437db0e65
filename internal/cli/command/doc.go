// Package command provides the dashlink CLI commands.
//
// It uses urfave/cli/v2 and supports both single-command mode and the
// interactive REPL. Both modes share one Runtime per process, built on
// first use from the layered configuration.
package command
