package command

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/dashlink/internal/cli/config"
	"github.com/yndnr/dashlink/internal/cli/repl"
	"github.com/yndnr/dashlink/internal/infra/confloader"
	"github.com/yndnr/dashlink/internal/telemetry/logger"
)

// ReplCommand returns the repl command.
func ReplCommand() *cli.Command {
	return &cli.Command{
		Name:    "repl",
		Aliases: []string{"shell"},
		Usage:   "Interactive mode sharing one session across commands",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not read or write ~/.dashlink/history",
			},
		},
		Action: replAction,
	}
}

func replAction(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	historyFile := repl.DefaultHistoryFile()
	if c.Bool("no-history") {
		historyFile = ""
	}
	history := repl.NewHistory(historyFile)
	if err := history.Load(); err != nil {
		rt.Logger.Warn("failed to load history", "error", err)
	}
	defer func() {
		if err := history.Save(); err != nil {
			rt.Logger.Warn("failed to save history", "error", err)
		}
	}()

	if stop := watchLogLevel(rt); stop != nil {
		defer stop()
	}

	r := repl.New(
		func(ctx context.Context, args []string) error {
			return ShellApp(rt).RunContext(ctx, append([]string{"dashlink"}, args...))
		},
		repl.WithIO(rt.In, rt.Out),
		repl.WithHistory(history),
		repl.WithCompleter(repl.NewCompleter(commandNames(ShellApp(rt).Commands))),
		repl.WithPrompt(func() string {
			return fmt.Sprintf("dashlink:%s> ", rt.Browser.Current())
		}),
	)
	return r.Run(c.Context)
}

// ShellApp returns the app one REPL line runs in. It reuses rt instead of
// building a runtime, and never exits the process.
func ShellApp(rt *Runtime) *cli.App {
	return &cli.App{
		Name:                      "dashlink",
		Usage:                     "Interactive dashlink shell",
		Commands:                  commands(),
		Reader:                    rt.In,
		Writer:                    rt.Out,
		ErrWriter:                 rt.Err,
		DisableSliceFlagSeparator: true,
		Metadata:                  map[string]any{runtimeKey: rt},
		ExitErrHandler:            func(*cli.Context, error) {},
	}
}

func commandNames(cmds []*cli.Command) []string {
	names := []string{"help", "h"}
	for _, cmd := range cmds {
		for _, name := range cmd.Names() {
			names = append(names, name)
			for _, sub := range cmd.Subcommands {
				names = append(names, name+" "+sub.Name)
			}
		}
	}
	return names
}

// watchLogLevel re-reads log.level when the config file changes.
func watchLogLevel(rt *Runtime) (stop func()) {
	if rt.ConfigPath == "" {
		return nil
	}
	if _, err := os.Stat(rt.ConfigPath); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(logger.Slog(rt.Logger)))
	if err != nil {
		rt.Logger.Warn("config watcher unavailable", "error", err)
		return nil
	}
	if err := w.Watch(rt.ConfigPath); err != nil {
		_ = w.Stop()
		return nil
	}

	w.OnChange(func(path string) {
		cfg, err := config.Load(path, nil)
		if err != nil {
			rt.Logger.Warn("ignoring invalid config change", "path", path, "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			rt.Logger.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()

	return func() { _ = w.Stop() }
}
