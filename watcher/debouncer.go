package watcher

import (
	"sort"
	"sync"
	"time"
)

// pendingKind is the per-path accumulator state held during an open
// coalescing window.
type pendingKind int

const (
	pendingCreate pendingKind = iota
	pendingModify
	pendingDelete
	pendingRename
	// pendingRenameOut is an unpaired rename source; it degrades to a
	// delete if no destination shows up before the window closes.
	pendingRenameOut
)

type pendingState struct {
	kind        pendingKind
	renamedFrom string // set for pendingRename
	lastFeed    time.Time
}

// Debouncer coalesces multiple raw events per path inside a time window into
// at most one semantic Event. The window for a path closes `window` after its
// last feed. At most one pending state exists per path.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	matcher *Matcher
	pending map[string]*pendingState
	errs    []Event

	// now is the clock, injectable for tests.
	now func() time.Time
}

// NewDebouncer creates a debouncer with the given coalescing window. The
// matcher, when non-nil, gates which paths are observable; events on ignored
// paths are dropped at the door.
func NewDebouncer(window time.Duration, matcher *Matcher) *Debouncer {
	return &Debouncer{
		window:  window,
		matcher: matcher,
		pending: make(map[string]*pendingState),
		now:     time.Now,
	}
}

// Feed applies one raw event to the per-path state machine. It never blocks
// and performs no I/O, so the event source can call it directly.
func (d *Debouncer) Feed(raw RawEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if raw.Kind == RawError {
		// Errors bypass coalescing; they are surfaced on the next poll.
		d.errs = append(d.errs, Event{Type: EventError, Message: raw.Message})
		return
	}

	if d.matcher != nil && d.matcher.IsIgnored(raw.Path) {
		return
	}

	now := d.now()
	st := d.pending[raw.Path]

	switch raw.Kind {
	case RawCreated:
		if st == nil {
			st = &pendingState{kind: pendingCreate}
		} else if st.kind == pendingDelete {
			// Recreated within the window: net effect is a modify.
			st.kind = pendingModify
		}
		// A create on top of pendingCreate/pendingModify/pendingRename
		// changes nothing; the open state already covers it.

	case RawModified:
		if st == nil {
			// First event on a quiescent path: a pre-existing file changed.
			st = &pendingState{kind: pendingModify}
		}
		// Create subsumes modify; delete and rename states are unchanged
		// by trailing writes.

	case RawRemoved:
		switch {
		case st == nil:
			st = &pendingState{kind: pendingDelete}
		case st.kind == pendingCreate:
			// Net-zero: created and discarded inside one window.
			delete(d.pending, raw.Path)
			return
		case st.kind == pendingRename:
			// Renamed in and removed again: the original source is gone.
			st = &pendingState{kind: pendingDelete}
		default:
			st.kind = pendingDelete
		}

	case RawRenamedFrom:
		switch {
		case st == nil:
			st = &pendingState{kind: pendingRenameOut}
		case st.kind == pendingCreate:
			// Created then renamed away: nothing ever existed here.
			delete(d.pending, raw.Path)
			return
		default:
			st.kind = pendingRenameOut
		}

	case RawRenamedTo:
		// Resolve the pair: the source path's window closes silently and
		// the destination carries the rename.
		delete(d.pending, raw.From)
		st = &pendingState{kind: pendingRename, renamedFrom: raw.From}
	}

	st.lastFeed = now
	d.pending[raw.Path] = st
}

// PollReady returns the events whose debounce window has elapsed, clearing
// their per-path state. Non-blocking. Events are ordered by window close
// time, which is monotonic with feed order for any single path.
func (d *Debouncer) PollReady() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.collect(d.now().Add(-d.window))
}

// Drain returns events whose window has already elapsed and discards all
// still-pending state. Used when the orchestrator transitions to draining.
func (d *Debouncer) Drain() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	events := d.collect(d.now().Add(-d.window))
	d.pending = make(map[string]*pendingState)
	return events
}

// PendingCount returns the number of open per-path windows.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// collect gathers expired states plus queued errors. Caller holds d.mu.
func (d *Debouncer) collect(cutoff time.Time) []Event {
	events := d.errs
	d.errs = nil

	type expired struct {
		path string
		st   *pendingState
	}
	var ready []expired
	for path, st := range d.pending {
		if !st.lastFeed.After(cutoff) {
			ready = append(ready, expired{path, st})
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		if !ready[i].st.lastFeed.Equal(ready[j].st.lastFeed) {
			return ready[i].st.lastFeed.Before(ready[j].st.lastFeed)
		}
		return ready[i].path < ready[j].path
	})

	for _, e := range ready {
		delete(d.pending, e.path)
		switch e.st.kind {
		case pendingCreate:
			events = append(events, Event{Type: EventCreated, Path: e.path})
		case pendingModify:
			events = append(events, Event{Type: EventModified, Path: e.path})
		case pendingDelete:
			events = append(events, Event{Type: EventDeleted, Path: e.path})
		case pendingRename:
			events = append(events, Event{Type: EventRenamed, Path: e.path, From: e.st.renamedFrom})
		case pendingRenameOut:
			// Unpaired rename source: report what is observable, a delete.
			events = append(events, Event{Type: EventDeleted, Path: e.path})
		}
	}
	return events
}
