package types

import "fmt"

// WarningKind classifies recoverable assembly findings.
type WarningKind string

const (
	// WarningGap indicates a jump in the ordering key larger than the
	// configured tolerance (suspected dropped events).
	WarningGap WarningKind = "gap"
	// WarningDuplicate indicates a repeated ordering key (suspected
	// duplicated event).
	WarningDuplicate WarningKind = "duplicate"
)

// AssemblyWarning reports a non-fatal finding during run assembly.
// Warnings are logged and collected; processing continues, since partial
// data remains usable (truncated on-site files, restarted acquisition).
type AssemblyWarning struct {
	// Kind is the warning classification.
	Kind WarningKind `json:"kind"`
	// Path is the file in which the finding was made.
	Path string `json:"path"`
	// DataSource is the acquisition stream of that file.
	DataSource string `json:"data_source"`
	// PrevEventID is the ordering key preceding the finding.
	PrevEventID uint64 `json:"prev_event_id"`
	// EventID is the ordering key at which the finding was made.
	EventID uint64 `json:"event_id"`
}

// Missing returns the number of event ids skipped by a gap warning.
// Zero for other kinds.
func (w AssemblyWarning) Missing() uint64 {
	if w.Kind != WarningGap || w.EventID <= w.PrevEventID+1 {
		return 0
	}
	return w.EventID - w.PrevEventID - 1
}

func (w AssemblyWarning) String() string {
	where := w.Path
	if where == "" {
		where = "stream " + w.DataSource
	}
	switch w.Kind {
	case WarningGap:
		return fmt.Sprintf("gap of %d event(s) between id %d and %d in %s",
			w.Missing(), w.PrevEventID, w.EventID, where)
	case WarningDuplicate:
		return fmt.Sprintf("duplicate event id %d in %s", w.EventID, where)
	default:
		return fmt.Sprintf("%s at event id %d in %s", w.Kind, w.EventID, where)
	}
}
