package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/grovetools/watch/config"
	"github.com/grovetools/watch/git"
	"github.com/grovetools/watch/output"
	"github.com/grovetools/watch/pkg/daemon"
	"github.com/grovetools/watch/watcher"
)

// runWatch assembles the pipeline from the effective configuration and runs
// it until the context is cancelled or a fatal condition occurs.
func runWatch(ctx context.Context, cfg *config.Config) error {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return err
	}

	matcher, err := watcher.NewMatcher(root, cfg.DefaultExcludesEnabled(), cfg.GitignoreEnabled(), cfg.IgnorePatterns)
	if err != nil {
		return err
	}

	source, err := watcher.NewSource(root, cfg.RecursiveEnabled(), cfg.MaxDepth, matcher)
	if err != nil {
		return err
	}

	cache := setupGit(cfg, root)

	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	sink, err := output.New(format, os.Stdout)
	if err != nil {
		return err
	}

	if cfg.Listen != "" {
		server := daemon.NewServer(cfg.Listen)
		server.Start(ctx)
		sink = &output.MultiSink{Sinks: []output.Sink{sink, server}}
	}
	defer sink.Close()

	runner := watcher.NewRunner(watcher.RunnerOptions{
		Source:    source,
		Debouncer: watcher.NewDebouncer(cfg.DebounceWindow(), matcher),
		Cache:     cache,
		Sink:      sink,
		Tick:      cfg.Tick(),
		Heartbeat: format == output.FormatSummary,
	})

	return runner.Run(ctx)
}

// setupGit builds the status cache unless enrichment is disabled. Repository
// discovery lives inside the fetch, so a tree with no repository at startup
// still picks one up a TTL after it is initialized.
func setupGit(cfg *config.Config, root string) *git.StatusCache {
	if cfg.Git != nil && !*cfg.Git {
		return nil
	}

	return git.NewStatusCache(cfg.StatusTTL(), func() (*git.RepoStatus, error) {
		repoRoot, err := git.DiscoverRoot(context.Background(), root)
		if err != nil {
			return nil, err
		}
		status, err := git.GetStatus(context.Background(), repoRoot)
		if err != nil {
			return nil, err
		}
		status.Root = repoRoot
		return status, nil
	})
}
