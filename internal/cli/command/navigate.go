package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// GotoCommand returns the goto command.
func GotoCommand() *cli.Command {
	return &cli.Command{
		Name:      "goto",
		Aliases:   []string{"cd"},
		Usage:     "Navigate to a location (path?query)",
		ArgsUsage: "PATH",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("usage: goto PATH")
			}
			rt, err := GetRuntime(c)
			if err != nil {
				return err
			}
			rt.Browser.Navigate(c.Args().First())
			fmt.Fprintln(rt.Out, rt.Browser.Current())
			return nil
		},
	}
}

// WhereCommand returns the where command.
func WhereCommand() *cli.Command {
	return &cli.Command{
		Name:    "where",
		Aliases: []string{"pwd"},
		Usage:   "Print the current location",
		Action: func(c *cli.Context) error {
			rt, err := GetRuntime(c)
			if err != nil {
				return err
			}
			fmt.Fprintln(rt.Out, rt.Browser.Current())
			return nil
		},
	}
}

// BackCommand returns the back command.
func BackCommand() *cli.Command {
	return &cli.Command{
		Name:  "back",
		Usage: "Return to the previous location",
		Action: func(c *cli.Context) error {
			rt, err := GetRuntime(c)
			if err != nil {
				return err
			}
			if !rt.Browser.Back() {
				return fmt.Errorf("no previous location")
			}
			fmt.Fprintln(rt.Out, rt.Browser.Current())
			return nil
		},
	}
}
