package assemble_test

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/cta-observatory/zfits-runsource/timecode"
	"github.com/cta-observatory/zfits-runsource/types"
	"github.com/cta-observatory/zfits-runsource/zfits"
)

// testHeader builds a chunk header for the canonical test run.
func testHeader(dataSource string, chunk int) types.FileHeader {
	return types.FileHeader{
		ObsID:      2000000016,
		SBID:       2000000008,
		TelID:      1,
		DataSource: dataSource,
		ChunkID:    chunk,
		CameraName: "LSTCam",
		NumPixels:  4,
		NumSamples: 2,
		ObsStart:   timecode.HighRes{S: 1696363485},
	}
}

// writeChunk writes a chunk file holding one event per given id.
func writeChunk(t *testing.T, dir, name string, header types.FileHeader, ids ...uint64) string {
	t.Helper()

	path := filepath.Join(dir, name)
	w, err := zfits.Create(path, &header)
	if err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	for _, id := range ids {
		event := &types.EventRecord{
			EventID:     id,
			TelID:       header.TelID,
			EventType:   types.TriggerShower,
			TriggerTime: timecode.HighRes{S: header.ObsStart.S, QNS: uint32(id)},
			NumChannels: 1,
			NumPixels:   header.NumPixels,
			NumSamples:  header.NumSamples,
			Waveform:    []byte{0x01, 0x02, 0x03, 0x04},
			PixelStatus: []byte{0x0c, 0x0c, 0x0c, 0x0c},
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

// eventSource is the pull surface shared by Assembler and Merger.
type eventSource interface {
	Next() (*types.EventRecord, error)
}

// drainIDs pulls events until exhaustion or a fatal error. Returns the
// yielded ids and the terminal error (nil when the source ended with EOF).
func drainIDs(t *testing.T, src eventSource) ([]uint64, error) {
	t.Helper()

	var ids []uint64
	for {
		event, err := src.Next()
		if errors.Is(err, io.EOF) {
			return ids, nil
		}
		if err != nil {
			return ids, err
		}
		ids = append(ids, event.EventID)
	}
}

func equalIDs(got, want []uint64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
