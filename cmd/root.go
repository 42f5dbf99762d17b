// Package cmd implements the watch CLI commands.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/grovetools/watch/cli"
	"github.com/grovetools/watch/config"
	"github.com/grovetools/watch/logging"
	"github.com/grovetools/watch/pkg/daemon"
	"github.com/grovetools/watch/version"
)

// NewRootCmd creates the root `watch` command. The root itself runs the
// pipeline; `status` and `version` are subcommands.
func NewRootCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"watch [path]",
		"Watch a directory tree and report changes enriched with git status",
	)
	cmd.Long = `Watches a directory tree for filesystem changes, coalesces event bursts,
filters ignored paths, and annotates each surviving change with the file's
git status. Results are streamed to stdout in the selected format and,
optionally, to websocket subscribers.

Examples:
  # Watch the current directory with colored output
  watch

  # Machine-readable JSON lines for the repo at ./api
  watch ./api --format json

  # Ignore logs and skip git enrichment
  watch --ignore '*.log' --no-git

  # Serve events to websocket subscribers as well
  watch --listen 127.0.0.1:7799`
	cmd.Args = cobra.MaximumNArgs(1)
	cmd.Version = version.Version
	cli.SetVersionTemplate(cmd, cli.VersionInfo{
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		BuildArch: runtime.GOARCH,
	})

	cmd.Flags().StringP("format", "f", "", "Output format: json, pretty, events, or summary")
	cmd.Flags().Int("debounce", 0, "Debounce window in milliseconds")
	cmd.Flags().Int("interval", 0, "Poll interval in milliseconds")
	cmd.Flags().Int("ttl", 0, "Git status cache TTL in milliseconds")
	cmd.Flags().StringArrayP("ignore", "i", nil, "Extra ignore pattern (repeatable)")
	cmd.Flags().Bool("no-gitignore", false, "Do not apply .gitignore rules")
	cmd.Flags().Bool("no-default-excludes", false, "Do not apply the built-in exclude list")
	cmd.Flags().Bool("no-git", false, "Disable git status enrichment")
	cmd.Flags().Int("max-depth", 0, "Limit recursion depth (0 = unlimited)")
	cmd.Flags().Bool("non-recursive", false, "Watch only the root directory itself")
	cmd.Flags().String("listen", "", "Serve events on a websocket address (e.g. 127.0.0.1:7799)")
	cmd.Flags().String("pidfile", "", "Write the process ID to this file and refuse to double-start")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opts := cli.GetOptions(cmd)
		handler := cli.NewErrorHandler(opts.Verbose)

		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return handler.Handle(err)
		}

		logging.Configure(cfg.Logging)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if pidfile, _ := cmd.Flags().GetString("pidfile"); pidfile != "" {
			if err := daemon.AcquirePidfile(pidfile); err != nil {
				return handler.Handle(err)
			}
			defer daemon.ReleasePidfile(pidfile)
		}

		if err := runWatch(ctx, cfg); err != nil {
			return handler.Handle(err)
		}
		return nil
	}

	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

// loadConfig resolves the effective configuration: file values first, then
// flag overrides.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	opts := cli.GetOptions(cmd)

	configPath, err := cli.InitConfig(opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if len(args) > 0 {
		cfg.Root = args[0]
	}
	if v, _ := cmd.Flags().GetString("format"); v != "" {
		cfg.Format = v
	}
	if v, _ := cmd.Flags().GetInt("debounce"); v > 0 {
		cfg.DebounceMs = v
	}
	if v, _ := cmd.Flags().GetInt("interval"); v > 0 {
		cfg.TickMs = v
	}
	if v, _ := cmd.Flags().GetInt("ttl"); v > 0 {
		cfg.StatusTTLMs = v
	}
	if v, _ := cmd.Flags().GetStringArray("ignore"); len(v) > 0 {
		cfg.IgnorePatterns = append(cfg.IgnorePatterns, v...)
	}
	if v, _ := cmd.Flags().GetBool("no-gitignore"); v {
		f := false
		cfg.UseGitignore = &f
	}
	if v, _ := cmd.Flags().GetBool("no-default-excludes"); v {
		f := false
		cfg.DefaultExcludes = &f
	}
	if v, _ := cmd.Flags().GetBool("no-git"); v {
		f := false
		cfg.Git = &f
	}
	if v, _ := cmd.Flags().GetInt("max-depth"); v > 0 {
		cfg.MaxDepth = v
	}
	if v, _ := cmd.Flags().GetBool("non-recursive"); v {
		f := false
		cfg.Recursive = &f
	}
	if v, _ := cmd.Flags().GetString("listen"); v != "" {
		cfg.Listen = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
