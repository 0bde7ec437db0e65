// Package main provides the entry point for dashlink.
//
// dashlink is a command-line client for a dashboard API. It runs single
// commands or an interactive REPL, and handles session expiry the way the
// dashboard does: clear the session, warn once, and redirect to login.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/dashlink/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
