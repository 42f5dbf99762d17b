package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/watch/errors"
	"github.com/grovetools/watch/git"
	"github.com/grovetools/watch/logging"
	"github.com/grovetools/watch/output"
)

// RunnerOptions assembles the pipeline.
type RunnerOptions struct {
	Source    *Source
	Debouncer *Debouncer
	Cache     *git.StatusCache // nil disables git enrichment
	Sink      output.Sink
	Tick      time.Duration
	Heartbeat bool // emit a summary on idle ticks
}

// Runner is the control loop tying the pipeline together: it pulls debounced
// events, triggers status queries as needed, and forwards enriched results to
// the sink. It owns cancellation and the periodic tick.
type Runner struct {
	source    *Source
	debouncer *Debouncer
	cache     *git.StatusCache
	sink      output.Sink
	tick      time.Duration
	heartbeat bool
	logger    *logrus.Entry
}

// NewRunner creates a runner from options. Tick defaults to 100ms.
func NewRunner(opts RunnerOptions) *Runner {
	tick := opts.Tick
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}
	return &Runner{
		source:    opts.Source,
		debouncer: opts.Debouncer,
		cache:     opts.Cache,
		sink:      opts.Sink,
		tick:      tick,
		heartbeat: opts.Heartbeat,
		logger:    logging.NewLogger("watcher"),
	}
}

// Run drives the loop until the context is cancelled or the source
// terminates fatally. On cancellation it drains events whose window has
// already elapsed, discards the rest, and stops the source. A fatal source
// termination skips the drain and surfaces exactly one terminal error.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.source.Start(ctx); err != nil {
		return err
	}

	// The source must never block on orchestration work, so raw events are
	// pumped into the debouncer on their own goroutine; Feed is cheap.
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		for raw := range r.source.Events() {
			r.debouncer.Feed(raw)
		}
	}()

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	r.logger.Infof("Watching %s (tick %v)", r.source.root, r.tick)

	for {
		select {
		case <-ctx.Done():
			// Draining: flush already-elapsed windows, discard the rest.
			for _, ev := range r.debouncer.Drain() {
				r.forward(ev)
			}
			r.source.Stop()
			<-pumpDone
			r.logger.Info("Watcher stopped")
			return nil

		case <-pumpDone:
			// Cancellation can close the source before the runner re-enters
			// the select, leaving both branches ready. That is still a
			// normal shutdown; the fatal path is reserved for a source that
			// died on its own.
			if ctx.Err() != nil {
				for _, ev := range r.debouncer.Drain() {
					r.forward(ev)
				}
				r.source.Stop()
				r.logger.Info("Watcher stopped")
				return nil
			}
			err := r.source.Err()
			if err == nil {
				err = errors.ChannelClosed()
			}
			r.logger.WithError(err).Error("Event source terminated")
			r.sink.Fatal(err.Error())
			return err

		case <-ticker.C:
			events := r.debouncer.PollReady()
			if len(events) == 0 {
				if r.heartbeat {
					r.emitHeartbeat()
				}
				continue
			}
			for _, ev := range events {
				r.forward(ev)
			}
		}
	}
}

// forward enriches one event with git status and hands it to the sink.
func (r *Runner) forward(ev Event) {
	if ev.Type == EventError {
		r.logger.Warnf("Watch error: %s", ev.Message)
		if err := r.sink.Event(output.EventRecord{
			EventType: string(EventError),
			Message:   ev.Message,
			Timestamp: time.Now().Unix(),
		}); err != nil {
			r.logger.WithError(err).Warn("Sink rejected error event")
		}
		return
	}

	rec := output.EventRecord{
		EventType: string(ev.Type),
		Path:      ev.Path,
		From:      ev.From,
		GitStatus: r.statusFor(ev.Path),
		Timestamp: time.Now().Unix(),
	}
	if err := r.sink.Event(rec); err != nil {
		r.logger.WithError(err).Warn("Sink rejected event")
	}
}

// statusFor resolves the git status code for a changed path. The write just
// observed invalidates any existing snapshot, so status is never more stale
// than one TTL window behind the most recent relevant change. When the last
// fetch found no repository, TTL expiry alone drives the re-check, so a
// tree without a repository never spawns git per event but still notices a
// repository initialized mid-run.
func (r *Runner) statusFor(path string) *string {
	if r.cache == nil {
		return nil
	}

	if last := r.cache.Peek(); last != nil {
		if last.Root != "" && !underRoot(path, last.Root) {
			return nil
		}
		r.cache.Invalidate()
	}

	status := r.cache.Get()
	if status == nil {
		if err := r.cache.LastError(); err != nil && !errors.Is(err, errors.ErrCodeNotARepository) {
			r.logger.WithError(err).Debug("Status query failed")
		}
		return nil
	}
	if status.Root != "" && !underRoot(path, status.Root) {
		return nil
	}

	if fs, ok := status.FileFor(path, status.Root); ok {
		code := fs.Short()
		return &code
	}

	// Tracked-and-clean paths have no porcelain entry; a path that exists
	// on disk but is absent from the snapshot right after a change is
	// effectively untracked until git says otherwise.
	if _, err := os.Stat(path); err == nil {
		code := git.StatusUntracked.Short()
		return &code
	}
	return nil
}

// emitHeartbeat forwards the latest cached snapshot without forcing a
// refresh.
func (r *Runner) emitHeartbeat() {
	if r.cache == nil {
		return
	}
	status := r.cache.Peek()
	if status == nil {
		return
	}
	if err := r.sink.Summary(Summarize(status)); err != nil {
		r.logger.WithError(err).Warn("Sink rejected summary")
	}
}

// Summarize reduces a status snapshot to the summary record shape.
func Summarize(status *git.RepoStatus) output.Summary {
	branch := status.Branch
	return output.Summary{
		Branch:         &branch,
		Ahead:          status.Ahead,
		Behind:         status.Behind,
		ModifiedFiles:  status.CountBy(git.StatusModified),
		StagedFiles:    status.CountBy(git.StatusStaged),
		UntrackedFiles: status.CountBy(git.StatusUntracked),
		HasConflicts:   status.HasConflicts,
	}
}

// underRoot reports whether path lies inside root.
func underRoot(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}
