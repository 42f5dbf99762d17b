package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/watch/errors"
	"github.com/grovetools/watch/logging"
)

// renamePairWindow bounds how long a rename source waits for its destination
// before the pair is given up and both sides surface independently.
const renamePairWindow = 100 * time.Millisecond

// Source wraps the platform's native change notification mechanism, emitting
// raw events on a channel. It owns no business logic.
//
// A single-path I/O failure is emitted as a RawError event and does not
// terminate the stream. Loss of the watched root is terminal: the channel is
// closed and Err reports the fatal condition.
type Source struct {
	root      string
	recursive bool
	maxDepth  int
	matcher   *Matcher

	watcher *fsnotify.Watcher
	events  chan RawEvent
	logger  *logrus.Entry

	stopOnce sync.Once
	errMu    sync.Mutex
	termErr  error

	// rename pairing by delivery order
	pendingRenameFrom string
	pendingRenameAt   time.Time
}

// NewSource creates a source for root. The matcher, when non-nil, prunes
// ignored directories from the watch set so churn inside them never reaches
// the kernel queue consumer.
func NewSource(root string, recursive bool, maxDepth int, matcher *Matcher) (*Source, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.RootInvalid(root, err)
	}
	if !info.IsDir() {
		return nil, errors.RootInvalid(root, os.ErrInvalid)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeWatchFailed, "failed to create filesystem watcher")
	}

	return &Source{
		root:      root,
		recursive: recursive,
		maxDepth:  maxDepth,
		matcher:   matcher,
		watcher:   w,
		events:    make(chan RawEvent, 256),
		logger:    logging.NewLogger("event-source"),
	}, nil
}

// Start registers the watch set and begins delivering events. It returns once
// watching is established; delivery happens on a background goroutine until
// the context is cancelled, Stop is called, or a terminal condition occurs.
func (s *Source) Start(ctx context.Context) error {
	if err := s.addWatches(); err != nil {
		s.watcher.Close()
		return err
	}

	go s.run(ctx)
	return nil
}

// Events returns the raw event stream. The channel is closed on termination;
// check Err afterwards to distinguish a requested stop from a fatal loss.
func (s *Source) Events() <-chan RawEvent {
	return s.events
}

// Err returns the terminal error, if any, once Events has been closed.
func (s *Source) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.termErr
}

// Stop closes the underlying watcher. Safe to call more than once; after a
// terminal condition it is a no-op.
func (s *Source) Stop() {
	s.stopOnce.Do(func() {
		s.watcher.Close()
	})
}

// addWatches registers root and, for recursive mode, its subdirectories up to
// maxDepth. Ignored directories are pruned.
func (s *Source) addWatches() error {
	if !s.recursive {
		if err := s.watcher.Add(s.root); err != nil {
			return errors.Wrap(err, errors.ErrCodeWatchFailed, "failed to watch root").
				WithDetail("path", s.root)
		}
		return nil
	}

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Transient per-path failures must not abort the walk.
			s.logger.WithError(err).Debugf("Skipping unreadable path: %s", path)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != s.root {
			if s.matcher != nil && s.matcher.IsIgnored(path) {
				return filepath.SkipDir
			}
			if s.maxDepth > 0 && s.depthOf(path) > s.maxDepth {
				return filepath.SkipDir
			}
		}
		if err := s.watcher.Add(path); err != nil {
			s.logger.WithError(err).Warnf("Failed to watch directory: %s", path)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeWatchFailed, "failed to walk watch root").
			WithDetail("path", s.root)
	}
	return nil
}

// depthOf returns the directory depth of path relative to the root (root
// children are depth 1).
func (s *Source) depthOf(path string) int {
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// run is the delivery loop, grounded on the fsnotify select pattern.
func (s *Source) run(ctx context.Context) {
	defer close(s.events)

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				s.terminate(nil)
				return
			}
			if s.isRootLoss(event) {
				s.logger.Warnf("Watched root lost: %s", s.root)
				s.terminate(errors.RootLost(s.root))
				s.watcher.Close()
				return
			}
			s.handle(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				s.terminate(errors.ChannelClosed())
				return
			}
			// Recoverable: surface and continue.
			s.logger.WithError(err).Warn("Watcher error")
			s.emit(RawEvent{Kind: RawError, Message: err.Error()})
		case <-ctx.Done():
			s.Stop()
			s.terminate(nil)
			return
		}
	}
}

// isRootLoss reports whether the event announces removal of the root itself.
func (s *Source) isRootLoss(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(s.root)
}

// handle converts one fsnotify event into raw events, pairing renames by
// delivery order: the create that follows a rename within the pairing window
// is its destination.
func (s *Source) handle(event fsnotify.Event) {
	now := time.Now()

	switch {
	case event.Op&fsnotify.Create != 0:
		if s.pendingRenameFrom != "" && now.Sub(s.pendingRenameAt) <= renamePairWindow {
			from := s.pendingRenameFrom
			s.pendingRenameFrom = ""
			s.emit(RawEvent{Path: event.Name, Kind: RawRenamedTo, From: from})
		} else {
			s.emit(RawEvent{Path: event.Name, Kind: RawCreated})
		}
		s.maybeWatchNewDir(event.Name)

	case event.Op&fsnotify.Write != 0:
		s.emit(RawEvent{Path: event.Name, Kind: RawModified})

	case event.Op&fsnotify.Remove != 0:
		s.emit(RawEvent{Path: event.Name, Kind: RawRemoved})

	case event.Op&fsnotify.Rename != 0:
		s.pendingRenameFrom = event.Name
		s.pendingRenameAt = now
		s.emit(RawEvent{Path: event.Name, Kind: RawRenamedFrom})

	case event.Op&fsnotify.Chmod != 0:
		// Metadata-only; downstream consumers do not care.
	}
}

// maybeWatchNewDir extends the watch set when a directory appears inside a
// recursively watched tree.
func (s *Source) maybeWatchNewDir(path string) {
	if !s.recursive {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// The path may already be gone again; that is the transient
		// single-path failure mode, not a terminal one.
		if !os.IsNotExist(err) {
			s.emit(RawEvent{Path: path, Kind: RawError, Message: err.Error()})
		}
		return
	}
	if !info.IsDir() {
		return
	}
	if s.matcher != nil && s.matcher.IsIgnored(path) {
		return
	}
	if s.maxDepth > 0 && s.depthOf(path) > s.maxDepth {
		return
	}
	if err := s.watcher.Add(path); err != nil {
		s.logger.WithError(err).Warnf("Failed to watch new directory: %s", path)
	}
}

// emit forwards one raw event, dropping on overflow rather than ever blocking
// the OS event queue consumer.
func (s *Source) emit(raw RawEvent) {
	select {
	case s.events <- raw:
	default:
		s.logger.Warnf("Event buffer full, dropping event for %s", raw.Path)
	}
}

func (s *Source) terminate(err error) {
	s.errMu.Lock()
	s.termErr = err
	s.errMu.Unlock()
}
