package assemble

import (
	"container/heap"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/cta-observatory/zfits-runsource/iox"
	"github.com/cta-observatory/zfits-runsource/log"
	"github.com/cta-observatory/zfits-runsource/types"
)

// sourceStream is one acquisition stream feeding the merger: a per-source
// assembler plus its buffered head event.
type sourceStream struct {
	name      string
	assembler *Assembler
	head      *types.EventRecord
}

// eventHeap is a min-heap of streams ordered by their head ordering key.
type eventHeap []*sourceStream

func (h eventHeap) Len() int           { return len(h) }
func (h eventHeap) Less(i, j int) bool { return h[i].head.EventID < h[j].head.EventID }
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)        { *h = append(*h, x.(*sourceStream)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return s
}

// Merger yields globally ordered events from several parallel acquisition
// streams of the same observation (e.g. SDH001 and SDH002 writing disjoint
// event id subsets). Each stream is an Assembler over its own chunk
// sequence; the merger interleaves them on the ordering key.
//
// Header consistency and fatal ordering violations are enforced by the
// per-stream assemblers; run identity is additionally cross-checked between
// streams. Gap and duplicate findings are checked on the merged sequence
// only: a single stream carries an id subset, so its internal jumps are
// expected interleaving, not gaps.
type Merger struct {
	streams []*sourceStream
	h       eventHeap

	opts   Options
	logger *log.Logger

	meta     types.RunMeta
	warnings []types.AssemblyWarning

	prevID  uint64
	hasPrev bool

	closed bool
	fatal  error
}

// NewMerger creates a Merger over per-source chunk file lists.
// Every stream must open successfully and agree on run identity.
func NewMerger(filesBySource map[string][]string, opts Options) (*Merger, error) {
	if len(filesBySource) == 0 {
		return nil, errors.New("assemble: no data sources")
	}
	if opts.GapTolerance == 0 {
		opts.GapTolerance = DefaultGapTolerance
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}

	names := make([]string, 0, len(filesBySource))
	for name := range filesBySource {
		names = append(names, name)
	}
	sort.Strings(names)

	m := &Merger{opts: opts, logger: logger}
	for _, name := range names {
		a, err := New(filesBySource[name], opts)
		if err != nil {
			m.closeStreams()
			return nil, fmt.Errorf("stream %s: %w", name, err)
		}
		a.mergeMode = true
		m.streams = append(m.streams, &sourceStream{name: name, assembler: a})
	}

	// First stream establishes identity, others must agree.
	first := m.streams[0].assembler.RunMeta()
	m.meta = types.RunMeta{
		ObsID:      first.ObsID,
		SBID:       first.SBID,
		TelID:      first.TelID,
		CameraName: first.CameraName,
		ObsStart:   first.ObsStart,
	}
	for _, s := range m.streams[1:] {
		if err := m.checkStream(s); err != nil {
			m.closeStreams()
			return nil, err
		}
	}

	// Prime the heap with each stream's head event.
	for _, s := range m.streams {
		event, err := s.assembler.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				continue
			}
			m.closeStreams()
			return nil, fmt.Errorf("stream %s: %w", s.name, err)
		}
		s.head = event
		m.h = append(m.h, s)
	}
	heap.Init(&m.h)

	return m, nil
}

// RunMeta returns the merged run metadata assembled so far.
func (m *Merger) RunMeta() types.RunMeta {
	meta := m.meta
	for _, s := range m.streams {
		for _, path := range s.assembler.RunMeta().Files {
			meta.AddFile(path, s.name)
		}
	}
	return meta
}

// Warnings returns the findings reported on the merged sequence so far.
func (m *Merger) Warnings() []types.AssemblyWarning {
	return m.warnings
}

// Next yields the next event across all streams in ordering-key order.
// Returns io.EOF when every stream is exhausted.
func (m *Merger) Next() (*types.EventRecord, error) {
	if m.closed {
		return nil, os.ErrClosed
	}
	if m.fatal != nil {
		return nil, m.fatal
	}
	if m.h.Len() == 0 {
		return nil, io.EOF
	}

	s := heap.Pop(&m.h).(*sourceStream)
	event := s.head
	s.head = nil

	// Refill from the stream that produced this event.
	next, err := s.assembler.Next()
	switch {
	case err == nil:
		s.head = next
		heap.Push(&m.h, s)
	case errors.Is(err, io.EOF):
		// stream exhausted, leave it off the heap
	default:
		m.fatal = fmt.Errorf("stream %s: %w", s.name, err)
		m.closeStreams()
		return nil, m.fatal
	}

	m.checkMerged(event, s.name)
	m.prevID = event.EventID
	m.hasPrev = true
	m.meta.ObserveEvent(event)

	return event, nil
}

// checkMerged reports gap and duplicate findings against the merged
// sequence. The heap guarantees the merged key never decreases, so these
// are the only two findings possible here; this also catches a duplicate
// repeated within one stream, since equal keys pop consecutively.
func (m *Merger) checkMerged(event *types.EventRecord, source string) {
	if !m.hasPrev {
		return
	}

	switch {
	case event.EventID == m.prevID:
		m.warn(types.AssemblyWarning{
			Kind:        types.WarningDuplicate,
			DataSource:  source,
			PrevEventID: m.prevID,
			EventID:     event.EventID,
		})
		m.opts.Collector.IncDuplicateWarning()
	case event.EventID > m.prevID+m.opts.GapTolerance:
		w := types.AssemblyWarning{
			Kind:        types.WarningGap,
			DataSource:  source,
			PrevEventID: m.prevID,
			EventID:     event.EventID,
		}
		m.warn(w)
		m.opts.Collector.IncGapWarning(w.Missing())
	}
}

func (m *Merger) warn(w types.AssemblyWarning) {
	m.warnings = append(m.warnings, w)
	m.logger.Warn(w.String(), map[string]any{
		"kind":          string(w.Kind),
		"data_source":   w.DataSource,
		"prev_event_id": w.PrevEventID,
		"event_id":      w.EventID,
	})
}

// Close releases all stream resources.
func (m *Merger) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	return m.closeStreams()
}

func (m *Merger) closeStreams() error {
	closers := make([]io.Closer, 0, len(m.streams))
	for _, s := range m.streams {
		if s.assembler != nil {
			closers = append(closers, s.assembler)
		}
	}
	return iox.CloseAll(closers...)
}

// checkStream cross-checks another stream's identity against the first.
func (m *Merger) checkStream(s *sourceStream) error {
	meta := s.assembler.RunMeta()
	path := ""
	if len(meta.Files) > 0 {
		path = meta.Files[0]
	}
	if meta.ObsID != m.meta.ObsID {
		return &ConsistencyError{Path: path, Field: "obs_id", Want: m.meta.ObsID, Got: meta.ObsID}
	}
	if meta.SBID != m.meta.SBID {
		return &ConsistencyError{Path: path, Field: "sb_id", Want: m.meta.SBID, Got: meta.SBID}
	}
	if meta.TelID != m.meta.TelID {
		return &ConsistencyError{Path: path, Field: "tel_id", Want: m.meta.TelID, Got: meta.TelID}
	}
	if meta.CameraName != m.meta.CameraName {
		return &ConsistencyError{Path: path, Field: "camera", Want: m.meta.CameraName, Got: meta.CameraName}
	}
	return nil
}
