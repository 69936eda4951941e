package source_test

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/cta-observatory/zfits-runsource/paths"
	"github.com/cta-observatory/zfits-runsource/source"
	"github.com/cta-observatory/zfits-runsource/timecode"
	"github.com/cta-observatory/zfits-runsource/types"
	"github.com/cta-observatory/zfits-runsource/zfits"
)

// writeRunFile writes one properly named chunk file of the canonical run.
func writeRunFile(t *testing.T, dir, dataSource string, chunk int, ids ...uint64) string {
	t.Helper()

	sbID, obsID := uint64(20), uint64(27)
	name, err := paths.Format(&paths.FileInfo{
		TelID:      1,
		DataSource: dataSource,
		Timestamp:  "20231013T220427",
		SBID:       &sbID,
		ObsID:      &obsID,
		DataType:   "TEL_SHOWER",
		Chunk:      chunk,
		SBIDPad:    11,
		ObsIDPad:   11,
		ChunkPad:   3,
	}, paths.ConventionDPPSICD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(dir, name)
	w, err := zfits.Create(path, &types.FileHeader{
		ObsID:      obsID,
		SBID:       sbID,
		TelID:      1,
		DataSource: dataSource,
		ChunkID:    chunk,
		CameraName: "LSTCam",
		NumPixels:  4,
		NumSamples: 2,
		ObsStart:   timecode.HighRes{S: 1697234667},
	})
	if err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	for _, id := range ids {
		event := &types.EventRecord{
			EventID:     id,
			TelID:       1,
			EventType:   types.TriggerShower,
			TriggerTime: timecode.HighRes{S: 1697234667, QNS: uint32(id)},
			Waveform:    []byte{1, 2, 3, 4},
		}
		if err := w.WriteEvent(event); err != nil {
			t.Fatalf("failed to write event %d: %v", id, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close %s: %v", name, err)
	}
	return path
}

func drain(t *testing.T, src source.EventSource) []uint64 {
	t.Helper()

	var ids []uint64
	for {
		event, err := src.Next()
		if errors.Is(err, io.EOF) {
			return ids
		}
		if err != nil {
			t.Fatalf("unexpected error while draining: %v", err)
		}
		ids = append(ids, event.EventID)
	}
}

func TestNewZFits_ExplicitPaths(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeRunFile(t, dir, "SDH0001", 0, 1, 2),
		writeRunFile(t, dir, "SDH0001", 1, 3, 4),
	}

	src, err := source.New(source.Name, source.Config{Paths: files})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	ids := drain(t, src)
	if len(ids) != 4 || ids[0] != 1 || ids[3] != 4 {
		t.Errorf("yielded ids = %v, want [1 2 3 4]", ids)
	}
}

func TestNewZFits_DiscoverChunks(t *testing.T) {
	dir := t.TempDir()
	first := writeRunFile(t, dir, "SDH0001", 0, 1, 2)
	writeRunFile(t, dir, "SDH0001", 1, 3, 4)
	writeRunFile(t, dir, "SDH0001", 2, 5)

	src, err := source.New(source.Name, source.Config{
		Path:         first,
		AllSourceIDs: false,
		AllChunks:    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	ids := drain(t, src)
	if len(ids) != 5 || ids[4] != 5 {
		t.Errorf("yielded ids = %v, want [1 2 3 4 5]", ids)
	}
	if meta := src.RunMeta(); len(meta.Files) != 3 {
		t.Errorf("expected 3 contributing files, got %v", meta.Files)
	}
}

func TestNewZFits_SingleChunk(t *testing.T) {
	dir := t.TempDir()
	first := writeRunFile(t, dir, "SDH0001", 0, 1, 2)
	writeRunFile(t, dir, "SDH0001", 1, 3, 4)

	src, err := source.New(source.Name, source.Config{
		Path:         first,
		AllSourceIDs: false,
		AllChunks:    false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	ids := drain(t, src)
	if len(ids) != 2 {
		t.Errorf("yielded ids = %v, want only chunk 0", ids)
	}
}

func TestNewZFits_MergesSources(t *testing.T) {
	dir := t.TempDir()
	first := writeRunFile(t, dir, "SDH0001", 0, 1, 3, 5)
	writeRunFile(t, dir, "SDH0002", 0, 2, 4, 6)

	src, err := source.New(source.Name, source.Config{
		Path:         first,
		AllSourceIDs: true,
		AllChunks:    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	ids := drain(t, src)
	for i, id := range ids {
		if id != uint64(i+1) {
			t.Fatalf("yielded ids = %v, want [1 2 3 4 5 6]", ids)
		}
	}
	if len(ids) != 6 {
		t.Errorf("yielded %d events, want 6", len(ids))
	}
	if meta := src.RunMeta(); len(meta.DataSources) != 2 {
		t.Errorf("data sources = %v, want both streams", meta.DataSources)
	}
}

func TestNewZFits_RequiresInput(t *testing.T) {
	if _, err := source.New(source.Name, source.Config{}); err == nil {
		t.Fatal("expected an error without Path or Paths")
	}
}

func TestNew_UnknownSource(t *testing.T) {
	_, err := source.New("nope", source.Config{})
	if err == nil {
		t.Fatal("expected an error for an unregistered source")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic on duplicate registration")
		}
	}()
	source.Register(source.Name, func(source.Config) (source.EventSource, error) {
		return nil, fmt.Errorf("unused")
	})
}

func TestNames_IncludesZFits(t *testing.T) {
	for _, name := range source.Names() {
		if name == source.Name {
			return
		}
	}
	t.Errorf("registry names %v do not include %s", source.Names(), source.Name)
}
