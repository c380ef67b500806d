package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/narrator/internal/config"
	"github.com/example/narrator/internal/console"
)

const programName = "narrator"

// app is the state shared by all subcommands of one invocation.
type app struct {
	cfgFile string
	envFile string
	cfg     config.Config
	console *console.Console

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newApp() *app {
	return &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

// reportError prints a failed run's error. It works before the config has
// loaded, when no console exists yet.
func (a *app) reportError(err error) {
	c := a.console
	if c == nil {
		c = console.New(a.stdout, a.stderr, true)
	}
	c.Error(err)
}

func newRootCmd(a *app) *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           programName,
		Short:         "Narrate Markdown text through a speech synthesis backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: a.cfgFile,
				EnvFile:    a.envFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			a.cfg = loaded
			a.console = console.New(a.stdout, a.stderr, loaded.Output.NoBanner)
			setupLogger(a.stderr, loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", "Optional .env file (default ./.env when present)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newNarrateCmd(a))
	cmd.AddCommand(newDoctorCmd(a))

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(w io.Writer, levelStr string) {
	lvl, err := config.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}
