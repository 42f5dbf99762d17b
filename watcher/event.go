package watcher

import "fmt"

// RawKind classifies an OS-level notification before coalescing.
type RawKind int

const (
	RawCreated RawKind = iota
	RawModified
	RawRemoved
	// RawRenamedFrom marks a path that disappeared as the source of a rename.
	RawRenamedFrom
	// RawRenamedTo marks a path that appeared as the destination of a rename;
	// From carries the paired source path.
	RawRenamedTo
	// RawError carries a recoverable single-path I/O failure.
	RawError
)

// RawEvent is the ephemeral unit produced by the event source. It is consumed
// by the debouncer and never retained.
type RawEvent struct {
	Path    string
	Kind    RawKind
	From    string // set for RawRenamedTo
	Message string // set for RawError
}

// EventType names the semantic event categories exposed downstream.
type EventType string

const (
	EventCreated  EventType = "created"
	EventModified EventType = "modified"
	EventDeleted  EventType = "deleted"
	EventRenamed  EventType = "renamed"
	EventError    EventType = "error"
)

// Event is the coalesced, semantic unit emitted by the debouncer. Immutable
// once constructed; consumed exactly once downstream.
type Event struct {
	Type    EventType
	Path    string // destination path for renames
	From    string // source path, set for renames
	Message string // set for errors
}

// String implements fmt.Stringer.
func (e Event) String() string {
	switch e.Type {
	case EventRenamed:
		return fmt.Sprintf("%s %s -> %s", e.Type, e.From, e.Path)
	case EventError:
		return fmt.Sprintf("%s %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s %s", e.Type, e.Path)
}
