package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/grovetools/watch/cli"
	"github.com/grovetools/watch/git"
	"github.com/grovetools/watch/output"
	"github.com/grovetools/watch/watcher"
)

// NewStatusCmd creates the `status` command: a one-shot repository summary
// in any of the stream formats.
func NewStatusCmd() *cobra.Command {
	cmd := cli.NewStandardCommand(
		"status [path]",
		"Print a one-shot git status summary and exit",
	)
	cmd.Args = cobra.MaximumNArgs(1)
	cmd.Flags().StringP("format", "f", "summary", "Output format: json, pretty, events, or summary")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opts := cli.GetOptions(cmd)
		handler := cli.NewErrorHandler(opts.Verbose)

		path := "."
		if len(args) > 0 {
			path = args[0]
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return handler.Handle(err)
		}

		formatName, _ := cmd.Flags().GetString("format")
		format, err := output.ParseFormat(formatName)
		if err != nil {
			return handler.Handle(err)
		}
		sink, err := output.New(format, os.Stdout)
		if err != nil {
			return handler.Handle(err)
		}
		defer sink.Close()

		ctx := context.Background()
		repoRoot, err := git.DiscoverRoot(ctx, abs)
		if err != nil {
			return handler.Handle(err)
		}

		status, err := git.GetStatus(ctx, repoRoot)
		if err != nil {
			return handler.Handle(err)
		}

		return sink.Summary(watcher.Summarize(status))
	}

	return cmd
}
