package assemble

import (
	"errors"
	"io"
	"os"

	"github.com/cta-observatory/zfits-runsource/log"
	"github.com/cta-observatory/zfits-runsource/metrics"
	"github.com/cta-observatory/zfits-runsource/types"
	"github.com/cta-observatory/zfits-runsource/zfits"
)

// DefaultGapTolerance is the largest ordering-key jump that is not flagged
// as a gap. 1 means keys must be contiguous.
const DefaultGapTolerance uint64 = 1

// Options configures an Assembler.
type Options struct {
	// GapTolerance is the largest accepted ordering-key jump before a gap
	// warning is reported. Zero means DefaultGapTolerance.
	GapTolerance uint64
	// Logger receives warning and lifecycle entries. Nil means no logging.
	Logger *log.Logger
	// Collector receives counters. Nil is valid.
	Collector *metrics.Collector
}

// Assembler yields the events of one observation run, spread across one or
// more chunk files, as a single strictly ordered sequence.
//
// Files are opened lazily in input order, one at a time, and closed as soon
// as they are exhausted. Run identity is established from the first file's
// header and cross-checked against every subsequent header. The ordering
// key must be strictly increasing across the merged sequence; non-unit
// jumps and repeated keys are reported as warnings, boundary regressions
// are fatal.
type Assembler struct {
	files  []string
	opts   Options
	logger *log.Logger

	idx int
	cur *zfits.File

	meta     types.RunMeta
	warnings []types.AssemblyWarning

	prevID     uint64
	hasPrev    bool
	atBoundary bool

	// mergeMode suppresses per-stream gap/duplicate findings: a stream
	// feeding a Merger carries an id subset, so those findings are only
	// meaningful on the merged sequence. Fatal ordering checks stay.
	mergeMode bool

	exhausted bool
	closed    bool
	fatal     error
}

// New creates an Assembler over the given chunk files. The order of files
// is significant: it must reflect the chronological split order produced by
// the acquisition writer. The first file is opened immediately to establish
// the run metadata.
func New(files []string, opts Options) (*Assembler, error) {
	if len(files) == 0 {
		return nil, errors.New("assemble: no input files")
	}
	if opts.GapTolerance == 0 {
		opts.GapTolerance = DefaultGapTolerance
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}

	a := &Assembler{
		files:  files,
		opts:   opts,
		logger: logger,
	}
	if err := a.openNext(); err != nil {
		return nil, err
	}
	return a, nil
}

// RunMeta returns the run metadata assembled so far. Identity fields are
// complete after New; event-derived fields grow as events are yielded.
func (a *Assembler) RunMeta() types.RunMeta {
	return a.meta
}

// Warnings returns the findings reported so far.
func (a *Assembler) Warnings() []types.AssemblyWarning {
	return a.warnings
}

// Next yields the next event in ordering-key order.
// Returns io.EOF when the last file's last event has been yielded.
// Fatal errors (*ConsistencyError, *OutOfOrderError, decode and I/O
// failures) close the current file and poison the assembler.
func (a *Assembler) Next() (*types.EventRecord, error) {
	if a.closed {
		return nil, os.ErrClosed
	}
	if a.fatal != nil {
		return nil, a.fatal
	}
	if a.exhausted {
		return nil, io.EOF
	}

	for {
		if a.cur == nil {
			if a.idx >= len(a.files) {
				a.exhausted = true
				return nil, io.EOF
			}
			if err := a.openNext(); err != nil {
				return nil, a.fail(err)
			}
		}

		event, err := a.cur.NextEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.closeCurrent()
				a.opts.Collector.IncFileConsumed()
				continue
			}
			if zfits.IsFatalFrameError(err) || isDecodeError(err) {
				a.opts.Collector.IncDecodeErrors()
			}
			return nil, a.fail(err)
		}

		if err := a.checkOrdering(event); err != nil {
			return nil, a.fail(err)
		}

		a.prevID = event.EventID
		a.hasPrev = true
		a.atBoundary = false
		a.meta.ObserveEvent(event)
		a.opts.Collector.IncEventYielded()
		return event, nil
	}
}

// Close releases the open file handle, if any. The assembler cannot be
// restarted; call New again for another pass.
func (a *Assembler) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	if a.cur != nil {
		err := a.cur.Close()
		a.cur = nil
		return err
	}
	return nil
}

// openNext opens files[idx], validates its header, and advances idx.
func (a *Assembler) openNext() error {
	path := a.files[a.idx]
	f, err := zfits.Open(path)
	if err != nil {
		return err
	}

	header := f.Header()
	if a.idx == 0 {
		a.meta = types.RunMeta{
			ObsID:      header.ObsID,
			SBID:       header.SBID,
			TelID:      header.TelID,
			CameraName: header.CameraName,
			ObsStart:   header.ObsStart,
		}
	} else if err := a.checkHeader(path, header); err != nil {
		_ = f.Close()
		return err
	}

	a.logger.Info("opened chunk file", map[string]any{
		"path":        path,
		"chunk_id":    header.ChunkID,
		"data_source": header.DataSource,
	})

	a.meta.AddFile(path, header.DataSource)
	a.cur = f
	a.idx++
	a.atBoundary = a.hasPrev
	a.opts.Collector.IncFileOpened()
	return nil
}

// checkHeader cross-checks a later file's header against the established
// run identity. Any disagreement is fatal before an event is yielded from
// the offending file.
func (a *Assembler) checkHeader(path string, h types.FileHeader) error {
	if h.ObsID != a.meta.ObsID {
		return &ConsistencyError{Path: path, Field: "obs_id", Want: a.meta.ObsID, Got: h.ObsID}
	}
	if h.SBID != a.meta.SBID {
		return &ConsistencyError{Path: path, Field: "sb_id", Want: a.meta.SBID, Got: h.SBID}
	}
	if h.TelID != a.meta.TelID {
		return &ConsistencyError{Path: path, Field: "tel_id", Want: a.meta.TelID, Got: h.TelID}
	}
	if h.CameraName != a.meta.CameraName {
		return &ConsistencyError{Path: path, Field: "camera", Want: a.meta.CameraName, Got: h.CameraName}
	}
	return nil
}

// checkOrdering enforces the ordering invariant and reports gap/duplicate
// findings for the candidate event.
func (a *Assembler) checkOrdering(event *types.EventRecord) error {
	if !a.hasPrev {
		return nil
	}

	path := a.cur.Path()
	switch {
	case event.EventID < a.prevID:
		return &OutOfOrderError{
			Path:        path,
			PrevEventID: a.prevID,
			EventID:     event.EventID,
			Boundary:    a.atBoundary,
		}
	case event.EventID == a.prevID:
		if a.atBoundary {
			// Equal keys across a boundary break the strict ordering
			// guarantee between files.
			return &OutOfOrderError{
				Path:        path,
				PrevEventID: a.prevID,
				EventID:     event.EventID,
				Boundary:    true,
			}
		}
		if a.mergeMode {
			break
		}
		a.warn(types.AssemblyWarning{
			Kind:        types.WarningDuplicate,
			Path:        path,
			DataSource:  a.cur.Header().DataSource,
			PrevEventID: a.prevID,
			EventID:     event.EventID,
		})
		a.opts.Collector.IncDuplicateWarning()
	case event.EventID > a.prevID+a.opts.GapTolerance:
		if a.mergeMode {
			break
		}
		w := types.AssemblyWarning{
			Kind:        types.WarningGap,
			Path:        path,
			DataSource:  a.cur.Header().DataSource,
			PrevEventID: a.prevID,
			EventID:     event.EventID,
		}
		a.warn(w)
		a.opts.Collector.IncGapWarning(w.Missing())
	}
	return nil
}

func (a *Assembler) warn(w types.AssemblyWarning) {
	a.warnings = append(a.warnings, w)
	a.logger.Warn(w.String(), map[string]any{
		"kind":          string(w.Kind),
		"path":          w.Path,
		"prev_event_id": w.PrevEventID,
		"event_id":      w.EventID,
	})
}

// fail records a fatal error and releases the open handle.
func (a *Assembler) fail(err error) error {
	a.fatal = err
	a.closeCurrent()
	return err
}

func (a *Assembler) closeCurrent() {
	if a.cur != nil {
		_ = a.cur.Close()
		a.cur = nil
	}
}

func isDecodeError(err error) bool {
	var frameErr *zfits.FrameError
	return errors.As(err, &frameErr) && frameErr.Kind == zfits.FrameErrorDecode
}
