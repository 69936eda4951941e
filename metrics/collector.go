// Package metrics provides per-assembly metrics collection.
//
// The Collector accumulates counters during a single assembly. It is a leaf
// package with no internal dependencies. All increment methods are
// nil-receiver safe so library callers can simply not pass a collector.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all collected metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Assembly lifecycle
	FilesOpened   int64
	FilesConsumed int64

	// Events
	EventsYielded int64

	// Findings
	GapWarnings       int64
	DuplicateWarnings int64
	MissingEvents     int64
	DecodeErrors      int64

	// Export
	ExportWriteSuccess int64
	ExportWriteFailure int64

	// Dimensions (informational, set at construction)
	ObsID      uint64
	TelID      uint16
	Convention string
}

// Collector accumulates metrics during a single assembly.
// Thread-safe via sync.Mutex.
type Collector struct {
	mu sync.Mutex

	filesOpened   int64
	filesConsumed int64

	eventsYielded int64

	gapWarnings       int64
	duplicateWarnings int64
	missingEvents     int64
	decodeErrors      int64

	exportWriteSuccess int64
	exportWriteFailure int64

	obsID      uint64
	telID      uint16
	convention string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(obsID uint64, telID uint16, convention string) *Collector {
	return &Collector{
		obsID:      obsID,
		telID:      telID,
		convention: convention,
	}
}

// IncFileOpened records a chunk file being opened.
func (c *Collector) IncFileOpened() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.filesOpened++
	c.mu.Unlock()
}

// IncFileConsumed records a chunk file read to exhaustion.
func (c *Collector) IncFileConsumed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.filesConsumed++
	c.mu.Unlock()
}

// IncEventYielded records one event handed to the consumer.
func (c *Collector) IncEventYielded() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.eventsYielded++
	c.mu.Unlock()
}

// IncGapWarning records a gap finding covering n missing events.
func (c *Collector) IncGapWarning(n uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.gapWarnings++
	c.missingEvents += int64(n)
	c.mu.Unlock()
}

// IncDuplicateWarning records a duplicate ordering key finding.
func (c *Collector) IncDuplicateWarning() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.duplicateWarnings++
	c.mu.Unlock()
}

// IncDecodeErrors records a frame decode error.
func (c *Collector) IncDecodeErrors() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.decodeErrors++
	c.mu.Unlock()
}

// IncExportWriteSuccess records a successful export write (per-call).
func (c *Collector) IncExportWriteSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.exportWriteSuccess++
	c.mu.Unlock()
}

// IncExportWriteFailure records a failed export write (per-call).
func (c *Collector) IncExportWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.exportWriteFailure++
	c.mu.Unlock()
}

// Snapshot returns an immutable point-in-time view of all metrics.
// The Collector can continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		FilesOpened:   c.filesOpened,
		FilesConsumed: c.filesConsumed,

		EventsYielded: c.eventsYielded,

		GapWarnings:       c.gapWarnings,
		DuplicateWarnings: c.duplicateWarnings,
		MissingEvents:     c.missingEvents,
		DecodeErrors:      c.decodeErrors,

		ExportWriteSuccess: c.exportWriteSuccess,
		ExportWriteFailure: c.exportWriteFailure,

		ObsID:      c.obsID,
		TelID:      c.telID,
		Convention: c.convention,
	}
}
