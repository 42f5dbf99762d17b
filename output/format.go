package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/grovetools/watch/errors"
)

// Format selects how records are rendered.
type Format string

const (
	FormatJSON    Format = "json"
	FormatPretty  Format = "pretty"
	FormatEvents  Format = "events"
	FormatSummary Format = "summary"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "pretty":
		return FormatPretty, nil
	case "events":
		return FormatEvents, nil
	case "summary":
		return FormatSummary, nil
	}
	return "", errors.ConfigInvalid("unknown output format: " + s + " (use json, pretty, events, or summary)")
}

// New creates a writer-backed sink for the given format.
func New(format Format, w io.Writer) (Sink, error) {
	switch format {
	case FormatJSON:
		return &jsonSink{w: w}, nil
	case FormatPretty:
		return &prettySink{w: w, out: termenv.NewOutput(w)}, nil
	case FormatEvents:
		return &eventsSink{w: w}, nil
	case FormatSummary:
		return &summarySink{w: w}, nil
	}
	return nil, errors.ConfigInvalid("unknown output format: " + string(format))
}

// renderPath formats the path for human-readable sinks, showing both sides
// of a rename.
func renderPath(rec EventRecord) string {
	if rec.EventType == "renamed" && rec.From != "" {
		return rec.From + " -> " + rec.Path
	}
	return rec.Path
}

// jsonSink writes one JSON object per line.
type jsonSink struct {
	w io.Writer
}

func (s *jsonSink) Event(rec EventRecord) error {
	return s.writeJSON(rec)
}

func (s *jsonSink) Summary(sum Summary) error {
	return s.writeJSON(sum)
}

func (s *jsonSink) Fatal(message string) {
	_ = s.writeJSON(map[string]interface{}{
		"event_type": "fatal",
		"message":    message,
	})
}

func (s *jsonSink) Close() error { return nil }

func (s *jsonSink) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.w, string(data))
	return err
}

// prettySink writes colored human-readable lines.
type prettySink struct {
	w   io.Writer
	out *termenv.Output
}

func (s *prettySink) Event(rec EventRecord) error {
	indicator := ""
	if rec.GitStatus != nil {
		indicator = fmt.Sprintf("[%s] ", s.colorStatus(*rec.GitStatus))
	}

	var label termenv.Style
	switch rec.EventType {
	case "created":
		label = s.out.String("CREATED").Foreground(termenv.ANSIGreen).Bold()
	case "modified":
		label = s.out.String("MODIFIED").Foreground(termenv.ANSIYellow).Bold()
	case "deleted":
		label = s.out.String("DELETED").Foreground(termenv.ANSIRed).Bold()
	case "renamed":
		label = s.out.String("RENAMED").Foreground(termenv.ANSIBlue).Bold()
	case "error":
		_, err := fmt.Fprintf(s.w, "%s %s\n",
			s.out.String("ERROR").Foreground(termenv.ANSIRed).Bold(), rec.Message)
		return err
	default:
		label = s.out.String(strings.ToUpper(rec.EventType)).Bold()
	}

	_, err := fmt.Fprintf(s.w, "%s%s %s\n", indicator, label, renderPath(rec))
	return err
}

func (s *prettySink) Summary(sum Summary) error {
	branch := "(none)"
	if sum.Branch != nil {
		branch = *sum.Branch
	}
	_, err := fmt.Fprintf(s.w, "%s %s\n%s %d modified, %d staged, %d untracked\n",
		s.out.String("Branch:").Foreground(termenv.ANSICyan).Bold(), branch,
		s.out.String("Files:").Foreground(termenv.ANSICyan).Bold(),
		sum.ModifiedFiles, sum.StagedFiles, sum.UntrackedFiles)
	if err != nil {
		return err
	}
	if sum.Ahead > 0 || sum.Behind > 0 {
		_, err = fmt.Fprintf(s.w, "%s %d ahead, %d behind\n",
			s.out.String("Status:").Foreground(termenv.ANSICyan).Bold(), sum.Ahead, sum.Behind)
	}
	if sum.HasConflicts {
		_, _ = fmt.Fprintln(s.w, s.out.String("CONFLICTS DETECTED").Foreground(termenv.ANSIRed).Bold())
	}
	return err
}

func (s *prettySink) Fatal(message string) {
	_, _ = fmt.Fprintf(s.w, "%s %s\n",
		s.out.String("FATAL").Foreground(termenv.ANSIRed).Bold(), message)
}

func (s *prettySink) Close() error { return nil }

func (s *prettySink) colorStatus(code string) string {
	var color termenv.Color
	switch code {
	case "M":
		color = termenv.ANSIYellow
	case "A", "S":
		color = termenv.ANSIGreen
	case "D", "U":
		color = termenv.ANSIRed
	case "R":
		color = termenv.ANSIBlue
	default:
		color = termenv.ANSIBrightBlack
	}
	return s.out.String(code).Foreground(color).String()
}

// eventsSink writes terse machine-friendly lines.
type eventsSink struct {
	w io.Writer
}

func (s *eventsSink) Event(rec EventRecord) error {
	status := " "
	if rec.GitStatus != nil {
		status = *rec.GitStatus
	}

	marker := "?"
	switch rec.EventType {
	case "created":
		marker = "+"
	case "modified":
		marker = "~"
	case "deleted":
		marker = "-"
	case "renamed":
		marker = "R"
	case "error":
		_, err := fmt.Fprintf(s.w, "! %s\n", rec.Message)
		return err
	}

	_, err := fmt.Fprintf(s.w, "%s %s %s\n", status, marker, renderPath(rec))
	return err
}

func (s *eventsSink) Summary(Summary) error { return nil }

func (s *eventsSink) Fatal(message string) {
	_, _ = fmt.Fprintf(s.w, "! %s\n", message)
}

func (s *eventsSink) Close() error { return nil }

// summarySink renders only the periodic repository summary.
type summarySink struct {
	w io.Writer
}

func (s *summarySink) Event(EventRecord) error { return nil }

func (s *summarySink) Summary(sum Summary) error {
	branch := "(none)"
	if sum.Branch != nil {
		branch = *sum.Branch
	}
	conflict := ""
	if sum.HasConflicts {
		conflict = " [CONFLICT]"
	}
	_, err := fmt.Fprintf(s.w, "[%s] ↑%d ↓%d | M:%d S:%d U:%d%s\n",
		branch, sum.Ahead, sum.Behind,
		sum.ModifiedFiles, sum.StagedFiles, sum.UntrackedFiles, conflict)
	return err
}

func (s *summarySink) Fatal(message string) {
	_, _ = fmt.Fprintf(s.w, "! %s\n", message)
}

func (s *summarySink) Close() error { return nil }

// MultiSink fans records out to several sinks, e.g. stdout plus a websocket
// broadcaster.
type MultiSink struct {
	Sinks []Sink
}

func (m *MultiSink) Event(rec EventRecord) error {
	var firstErr error
	for _, s := range m.Sinks {
		if err := s.Event(rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *MultiSink) Summary(sum Summary) error {
	var firstErr error
	for _, s := range m.Sinks {
		if err := s.Summary(sum); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *MultiSink) Fatal(message string) {
	for _, s := range m.Sinks {
		s.Fatal(message)
	}
}

func (m *MultiSink) Close() error {
	var firstErr error
	for _, s := range m.Sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
