package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/dashlink/internal/cli/config"
	"github.com/yndnr/dashlink/internal/cli/output"
	"github.com/yndnr/dashlink/internal/storage"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "CLI configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration (secrets masked)",
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration file",
				Action: configValidate,
			},
			{
				Name:  "init",
				Usage: "Write a configuration file with the defaults",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing file",
					},
				},
				Action: configInit,
			},
			{
				Name:   "keygen",
				Usage:  "Print a random storage.durable.encryption_key",
				Action: configKeygen,
			},
			{
				Name:  "path",
				Usage: "Print the configuration file path",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, configFile(c))
					return nil
				},
			},
		},
	}
}

// configFile returns the --config path, or the REPL runtime's path.
func configFile(c *cli.Context) string {
	if path := c.String("config"); path != "" {
		return config.ExpandHome(path)
	}
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok && rt.ConfigPath != "" {
		return rt.ConfigPath
	}
	return config.DefaultConfigPath()
}

func configShow(c *cli.Context) error {
	cfg, err := config.Load(configFile(c), flagOverrides(c))
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil || format == output.FormatTable {
		format = output.FormatYAML
	}
	return output.NewFormatter(format, false).Format(c.App.Writer, config.Sanitize(cfg))
}

func configValidate(c *cli.Context) error {
	path := configFile(c)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(c.App.Writer, "No configuration file at %s, using defaults\n", path)
		return nil
	}
	if _, err := config.Load(path, nil); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "✓ Configuration file is valid: %s\n", path)
	return nil
}

func configInit(c *cli.Context) error {
	path := configFile(c)
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}

func configKeygen(c *cli.Context) error {
	key, err := storage.GenerateKey()
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	fmt.Fprintln(c.App.Writer, key)
	return nil
}
