// Package adapter defines the notification boundary.
//
// Adapters publish run-assembled notifications to downstream systems
// (on-site monitoring, pipeline schedulers). The CLI owns adapter
// lifecycle; users provide configuration only.
package adapter

import "context"

// RunAssembledEvent is the payload published when an assembly finishes.
type RunAssembledEvent struct {
	ContractVersion string `json:"contract_version"`
	EventType       string `json:"event_type"` // always "run_assembled"
	ObsID           uint64 `json:"obs_id"`
	SBID            uint64 `json:"sb_id"`
	TelID           uint16 `json:"tel_id"`
	Site            string `json:"site"`
	Day             string `json:"day"`
	Outcome         string `json:"outcome"` // success, consistency_error, ordering_error, io_error
	StoragePath     string `json:"storage_path,omitempty"`
	Timestamp       string `json:"timestamp"` // ISO 8601
	EventCount      int64  `json:"event_count"`
	FirstEventID    uint64 `json:"first_event_id"`
	LastEventID     uint64 `json:"last_event_id"`
	GapWarnings     int64  `json:"gap_warnings"`
	DuplicateCount  int64  `json:"duplicate_warnings"`
	DurationMs      int64  `json:"duration_ms"`
}

// Adapter publishes run-assembled events to a downstream system.
// Implementations must be safe for single-use per assembly.
type Adapter interface {
	// Publish sends a run-assembled event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *RunAssembledEvent) error

	// Close releases adapter resources.
	Close() error
}
