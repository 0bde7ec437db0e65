package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// ConnectCommand returns the connect command.
func ConnectCommand() *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "Point the client at a dashboard server",
		ArgsUsage: "[SERVER]",
		Action:    connectAction,
	}
}

func connectAction(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	server := c.Args().First()
	if server == "" {
		server = rt.Config.Server
	}

	client, err := rt.Conn.Connect(server)
	if err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}

	fmt.Fprintf(rt.Out, "Connected to %s\n", client.BaseURL())
	return nil
}

// DisconnectCommand returns the disconnect command.
func DisconnectCommand() *cli.Command {
	return &cli.Command{
		Name:   "disconnect",
		Usage:  "Disconnect from the current server",
		Action: disconnectAction,
	}
}

func disconnectAction(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	if !rt.Conn.IsConnected() {
		fmt.Fprintln(rt.Out, "Not connected to any server")
		return nil
	}

	rt.Conn.Disconnect()
	fmt.Fprintln(rt.Out, "Disconnected")
	return nil
}
