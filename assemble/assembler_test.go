package assemble_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cta-observatory/zfits-runsource/assemble"
	"github.com/cta-observatory/zfits-runsource/metrics"
	"github.com/cta-observatory/zfits-runsource/types"
)

func TestAssembler_ConcatenatesFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeChunk(t, dir, "chunk0.bin", testHeader("SDH0001", 0), 1, 2, 3),
		writeChunk(t, dir, "chunk1.bin", testHeader("SDH0001", 1), 4, 5),
	}

	a, err := assemble.New(files, assemble.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	ids, err := drainIDs(t, a)
	if err != nil {
		t.Fatalf("unexpected error while draining: %v", err)
	}
	if want := []uint64{1, 2, 3, 4, 5}; !equalIDs(ids, want) {
		t.Errorf("yielded ids = %v, want %v", ids, want)
	}
	if warnings := a.Warnings(); len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}

	meta := a.RunMeta()
	if meta.EventCount != 5 {
		t.Errorf("EventCount = %d, want 5", meta.EventCount)
	}
	if meta.FirstEventID != 1 || meta.LastEventID != 5 {
		t.Errorf("event id bounds = [%d, %d], want [1, 5]", meta.FirstEventID, meta.LastEventID)
	}
	if len(meta.Files) != 2 {
		t.Errorf("expected 2 contributing files, got %d", len(meta.Files))
	}

	// EOF is sticky.
	if _, err := a.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next after exhaustion = %v, want io.EOF", err)
	}
}

func TestAssembler_GapWarning(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeChunk(t, dir, "chunk0.bin", testHeader("SDH0001", 0), 1, 2, 5),
		writeChunk(t, dir, "chunk1.bin", testHeader("SDH0001", 1), 6, 7),
	}

	a, err := assemble.New(files, assemble.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	ids, err := drainIDs(t, a)
	if err != nil {
		t.Fatalf("unexpected error while draining: %v", err)
	}
	if want := []uint64{1, 2, 5, 6, 7}; !equalIDs(ids, want) {
		t.Errorf("yielded ids = %v, want %v", ids, want)
	}

	warnings := a.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	w := warnings[0]
	if w.Kind != types.WarningGap {
		t.Errorf("warning kind = %s, want %s", w.Kind, types.WarningGap)
	}
	if w.PrevEventID != 2 || w.EventID != 5 {
		t.Errorf("gap bounds = [%d, %d], want [2, 5]", w.PrevEventID, w.EventID)
	}
	if w.Missing() != 2 {
		t.Errorf("Missing() = %d, want 2", w.Missing())
	}
}

func TestAssembler_GapTolerance(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeChunk(t, dir, "chunk0.bin", testHeader("SDH0001", 0), 1, 2, 5),
	}

	a, err := assemble.New(files, assemble.Options{GapTolerance: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	if _, err := drainIDs(t, a); err != nil {
		t.Fatalf("unexpected error while draining: %v", err)
	}
	if warnings := a.Warnings(); len(warnings) != 0 {
		t.Errorf("jump within tolerance should not warn, got %v", warnings)
	}
}

func TestAssembler_DuplicateWarning(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeChunk(t, dir, "chunk0.bin", testHeader("SDH0001", 0), 1, 2, 2, 3),
	}

	a, err := assemble.New(files, assemble.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	ids, err := drainIDs(t, a)
	if err != nil {
		t.Fatalf("duplicates are recoverable, got error: %v", err)
	}
	if want := []uint64{1, 2, 2, 3}; !equalIDs(ids, want) {
		t.Errorf("yielded ids = %v, want %v", ids, want)
	}

	warnings := a.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	if warnings[0].Kind != types.WarningDuplicate {
		t.Errorf("warning kind = %s, want %s", warnings[0].Kind, types.WarningDuplicate)
	}
	if warnings[0].EventID != 2 {
		t.Errorf("duplicate event id = %d, want 2", warnings[0].EventID)
	}
}

func TestAssembler_ConsistencyError(t *testing.T) {
	dir := t.TempDir()

	other := testHeader("SDH0001", 1)
	other.ObsID = 99

	files := []string{
		writeChunk(t, dir, "chunk0.bin", testHeader("SDH0001", 0), 1, 2, 3),
		writeChunk(t, dir, "chunk1.bin", other, 4, 5),
	}

	a, err := assemble.New(files, assemble.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	ids, err := drainIDs(t, a)
	if err == nil {
		t.Fatal("expected a consistency error")
	}

	var ce *assemble.ConsistencyError
	if !errors.As(err, &ce) {
		t.Fatalf("error type = %T, want *ConsistencyError", err)
	}
	if ce.Field != "obs_id" {
		t.Errorf("Field = %s, want obs_id", ce.Field)
	}

	// Every valid event of the first file was yielded, none of the second.
	if want := []uint64{1, 2, 3}; !equalIDs(ids, want) {
		t.Errorf("yielded ids = %v, want %v", ids, want)
	}

	// The assembler stays poisoned.
	if _, err2 := a.Next(); !errors.Is(err2, err) {
		t.Errorf("Next after fatal = %v, want the original error", err2)
	}
}

func TestAssembler_ConsistencyFields(t *testing.T) {
	mutations := []struct {
		field  string
		mutate func(*types.FileHeader)
	}{
		{"sb_id", func(h *types.FileHeader) { h.SBID = 7 }},
		{"tel_id", func(h *types.FileHeader) { h.TelID = 2 }},
		{"camera", func(h *types.FileHeader) { h.CameraName = "NectarCam" }},
	}

	for _, tt := range mutations {
		t.Run(tt.field, func(t *testing.T) {
			dir := t.TempDir()
			other := testHeader("SDH0001", 1)
			tt.mutate(&other)

			files := []string{
				writeChunk(t, dir, "chunk0.bin", testHeader("SDH0001", 0), 1),
				writeChunk(t, dir, "chunk1.bin", other, 2),
			}

			a, err := assemble.New(files, assemble.Options{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer a.Close()

			_, err = drainIDs(t, a)
			var ce *assemble.ConsistencyError
			if !errors.As(err, &ce) {
				t.Fatalf("error = %v, want *ConsistencyError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %s, want %s", ce.Field, tt.field)
			}
		})
	}
}

func TestAssembler_BoundaryOverlap(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeChunk(t, dir, "chunk0.bin", testHeader("SDH0001", 0), 1, 2, 3, 4, 5),
		writeChunk(t, dir, "chunk1.bin", testHeader("SDH0001", 1), 5, 6),
	}

	a, err := assemble.New(files, assemble.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	ids, err := drainIDs(t, a)

	var oe *assemble.OutOfOrderError
	if !errors.As(err, &oe) {
		t.Fatalf("error = %v, want *OutOfOrderError", err)
	}
	if !oe.Boundary {
		t.Error("expected a boundary violation")
	}

	// The first file was fully yielded before the failure.
	if want := []uint64{1, 2, 3, 4, 5}; !equalIDs(ids, want) {
		t.Errorf("yielded ids = %v, want %v", ids, want)
	}
}

func TestAssembler_IntraFileRegression(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeChunk(t, dir, "chunk0.bin", testHeader("SDH0001", 0), 1, 3, 2),
	}

	a, err := assemble.New(files, assemble.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	ids, err := drainIDs(t, a)

	var oe *assemble.OutOfOrderError
	if !errors.As(err, &oe) {
		t.Fatalf("error = %v, want *OutOfOrderError", err)
	}
	if oe.Boundary {
		t.Error("regression inside one file must not be flagged as a boundary violation")
	}
	if oe.PrevEventID != 3 || oe.EventID != 2 {
		t.Errorf("violation = [%d, %d], want [3, 2]", oe.PrevEventID, oe.EventID)
	}
	if want := []uint64{1, 3}; !equalIDs(ids, want) {
		t.Errorf("yielded ids = %v, want %v", ids, want)
	}
}

func TestAssembler_EmptyInput(t *testing.T) {
	if _, err := assemble.New(nil, assemble.Options{}); err == nil {
		t.Fatal("expected an error for an empty file list")
	}
}

func TestAssembler_LazyFileOpening(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeChunk(t, dir, "chunk0.bin", testHeader("SDH0001", 0), 1, 2),
		filepath.Join(dir, "missing.bin"),
	}

	// Only the first file is opened at construction time.
	a, err := assemble.New(files, assemble.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	ids, err := drainIDs(t, a)
	if err == nil {
		t.Fatal("expected an error opening the missing second file")
	}
	if !os.IsNotExist(err) && !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want a not-exist error", err)
	}
	if want := []uint64{1, 2}; !equalIDs(ids, want) {
		t.Errorf("yielded ids = %v, want %v", ids, want)
	}
}

func TestAssembler_NextAfterClose(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeChunk(t, dir, "chunk0.bin", testHeader("SDH0001", 0), 1),
	}

	a, err := assemble.New(files, assemble.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if _, err := a.Next(); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Next after Close = %v, want os.ErrClosed", err)
	}
}

func TestAssembler_CollectsMetrics(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeChunk(t, dir, "chunk0.bin", testHeader("SDH0001", 0), 1, 2, 5),
		writeChunk(t, dir, "chunk1.bin", testHeader("SDH0001", 1), 6, 6, 7),
	}

	collector := metrics.NewCollector(2000000016, 1, "acada_dpps_icd")
	a, err := assemble.New(files, assemble.Options{Collector: collector})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	if _, err := drainIDs(t, a); err != nil {
		t.Fatalf("unexpected error while draining: %v", err)
	}

	snap := collector.Snapshot()
	if snap.FilesOpened != 2 || snap.FilesConsumed != 2 {
		t.Errorf("file counters = %d/%d, want 2/2", snap.FilesOpened, snap.FilesConsumed)
	}
	if snap.EventsYielded != 6 {
		t.Errorf("EventsYielded = %d, want 6", snap.EventsYielded)
	}
	if snap.GapWarnings != 1 || snap.MissingEvents != 2 {
		t.Errorf("gap counters = %d/%d, want 1/2", snap.GapWarnings, snap.MissingEvents)
	}
	if snap.DuplicateWarnings != 1 {
		t.Errorf("DuplicateWarnings = %d, want 1", snap.DuplicateWarnings)
	}
}
