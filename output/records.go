// Package output defines the record shapes handed to external consumers and
// the formatters that render them. Field names and types are a compatibility
// contract; do not rename them.
package output

// EventRecord is the per-event record forwarded to the sink.
type EventRecord struct {
	// EventType is one of "created", "modified", "deleted", "renamed",
	// or "error".
	EventType string `json:"event_type"`

	// Path is the affected path; for renames, the destination.
	Path string `json:"path"`

	// From is the source path, set for "renamed" records only.
	From string `json:"from,omitempty"`

	// GitStatus is the single-character status code for the path, or null
	// when the path is outside any repository.
	GitStatus *string `json:"git_status"`

	// Timestamp is seconds since the Unix epoch.
	Timestamp int64 `json:"timestamp"`

	// Message carries detail for "error" records only.
	Message string `json:"message,omitempty"`
}

// Summary is the heartbeat/summary record describing repository state.
type Summary struct {
	Branch         *string `json:"branch"`
	Ahead          int     `json:"ahead"`
	Behind         int     `json:"behind"`
	ModifiedFiles  int     `json:"modified_files"`
	StagedFiles    int     `json:"staged_files"`
	UntrackedFiles int     `json:"untracked_files"`
	HasConflicts   bool    `json:"has_conflicts"`
}

// Sink consumes the pipeline's enriched results. Implementations must not
// retain records beyond the call.
type Sink interface {
	// Event delivers one per-event record.
	Event(rec EventRecord) error

	// Summary delivers one heartbeat/summary record.
	Summary(sum Summary) error

	// Fatal delivers a terminal error exactly once; no further calls follow.
	Fatal(message string)

	// Close releases any resources held by the sink.
	Close() error
}
