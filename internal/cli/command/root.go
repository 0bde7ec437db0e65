package command

import (
	"fmt"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/dashlink/internal/cli/config"
	"github.com/yndnr/dashlink/internal/infra/buildinfo"
)

const runtimeKey = "runtime"

// runtimeHolder builds the Runtime lazily so commands like version and
// config init work without opening storage.
type runtimeHolder struct {
	mu    sync.Mutex
	build func() (*Runtime, error)
	rt    *Runtime
}

func (h *runtimeHolder) get() (*Runtime, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rt != nil {
		return h.rt, nil
	}
	rt, err := h.build()
	if err != nil {
		return nil, err
	}
	h.rt = rt
	return rt, nil
}

// built returns the runtime if a command asked for it, else nil.
func (h *runtimeHolder) built() *Runtime {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rt
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                      "dashlink",
		Usage:                     "Dashboard API client with session-expiry handling",
		Version:                   buildinfo.String(),
		Flags:                     globalFlags(),
		Commands:                  append(commands(), ReplCommand()),
		EnableBashCompletion:      true,
		DisableSliceFlagSeparator: true,
		Metadata:                  map[string]any{},
		Before: func(c *cli.Context) error {
			holder := &runtimeHolder{}
			holder.build = func() (*Runtime, error) {
				cfg, err := config.Load(c.String("config"), flagOverrides(c))
				if err != nil {
					return nil, err
				}
				return NewRuntime(c.Context, cfg, RuntimeOptions{
					In:         c.App.Reader,
					Out:        c.App.Writer,
					Err:        c.App.ErrWriter,
					TTY:        isTerminal(os.Stderr),
					ConfigPath: configPath(c),
				})
			}
			c.App.Metadata[runtimeKey] = holder
			return nil
		},
		After: func(c *cli.Context) error {
			holder, ok := c.App.Metadata[runtimeKey].(*runtimeHolder)
			if !ok {
				return nil
			}
			rt := holder.built()
			if rt == nil {
				return nil
			}
			rt.WaitRedirect(c.Context)
			return rt.Close()
		},
	}
}

// commands returns the commands shared by single-command mode and the REPL.
func commands() []*cli.Command {
	return []*cli.Command{
		GetCommand(),
		PostCommand(),
		PutCommand(),
		DeleteCommand(),
		RequestCommand(),
		FetchCommand(),
		LoginCommand(),
		LogoutCommand(),
		WhoamiCommand(),
		SessionCommand(),
		GotoCommand(),
		WhereCommand(),
		BackCommand(),
		ConnectCommand(),
		DisconnectCommand(),
		ConfigCommand(),
		VersionCommand(),
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file path",
			Value:   config.DefaultConfigPath(),
			EnvVars: []string{"DASHLINK_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Dashboard server (http://host:port, https://..., unix:///path.sock)",
		},
		&cli.StringFlag{
			Name:  "base-path",
			Usage: "Path the dashboard is served under, e.g. /nofx/",
		},
		&cli.StringFlag{
			Name:  "location",
			Usage: "Starting location (path?query)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Serve Prometheus metrics on this address",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// flagOverrides maps set global flags to config keys.
func flagOverrides(c *cli.Context) map[string]any {
	keys := map[string]string{
		"server":       "server",
		"base-path":    "base_path",
		"location":     "location",
		"output":       "output",
		"metrics-addr": "metrics.addr",
	}

	overrides := make(map[string]any)
	for flag, key := range keys {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}
	if c.Bool("verbose") {
		overrides["log.level"] = "debug"
	}
	return overrides
}

func configPath(c *cli.Context) string {
	return config.ExpandHome(c.String("config"))
}

// GetRuntime returns the runtime of the running app, building it on first use.
func GetRuntime(c *cli.Context) (*Runtime, error) {
	for _, ctx := range c.Lineage() {
		if ctx.App == nil {
			continue
		}
		switch v := ctx.App.Metadata[runtimeKey].(type) {
		case *Runtime:
			return v, nil
		case *runtimeHolder:
			return v.get()
		}
	}
	return nil, fmt.Errorf("runtime not initialized")
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
