// Package source defines the event source contract a hosting analysis
// framework iterates over, and the registry through which implementations
// are discovered by name.
package source

import (
	"github.com/cta-observatory/zfits-runsource/log"
	"github.com/cta-observatory/zfits-runsource/metrics"
	"github.com/cta-observatory/zfits-runsource/paths"
	"github.com/cta-observatory/zfits-runsource/types"
)

// EventSource is the host framework's abstraction for "a thing that
// produces a sequence of events plus run metadata".
//
// Iteration is single-threaded pull: the consumer calls Next until io.EOF.
// Close must be called on every exit path, including early termination.
type EventSource interface {
	// RunMeta returns the run-level metadata assembled so far.
	RunMeta() types.RunMeta
	// Next yields the next event; io.EOF ends the sequence.
	Next() (*types.EventRecord, error)
	// Warnings returns the non-fatal findings reported so far.
	Warnings() []types.AssemblyWarning
	// Close releases all underlying file handles.
	Close() error
}

// Config configures an event source.
type Config struct {
	// Path is the first chunk file of one data source. Sibling chunks and
	// parallel streams are discovered from it, honoring the toggles below.
	Path string
	// Paths is an explicit ordered file list. When set, Path and discovery
	// are bypassed and the files are consumed as given.
	Paths []string
	// Convention is the filename grammar used for discovery.
	// Empty means paths.ConventionDPPSICD.
	Convention paths.Convention
	// AllSourceIDs opens all parallel data sources (e.g. SDH001, SDH002)
	// and merges their events in ordering-key order.
	AllSourceIDs bool
	// AllChunks follows subsequent chunk files when the current one is
	// exhausted.
	AllChunks bool
	// IgnoreTimestamp relaxes discovery so parallel streams need not share
	// identical file timestamps.
	IgnoreTimestamp bool
	// GapTolerance is the largest accepted ordering-key jump before a gap
	// warning. Zero means the assembler default.
	GapTolerance uint64
	// Logger receives structured log entries. Nil disables logging.
	Logger *log.Logger
	// Collector receives counters. Nil is valid.
	Collector *metrics.Collector
}

func (c Config) convention() paths.Convention {
	if c.Convention == "" {
		return paths.ConventionDPPSICD
	}
	return c.Convention
}
