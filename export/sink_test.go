package export_test

import (
	"errors"
	"testing"

	"github.com/cta-observatory/zfits-runsource/export"
	"github.com/cta-observatory/zfits-runsource/metrics"
	"github.com/cta-observatory/zfits-runsource/timecode"
	"github.com/cta-observatory/zfits-runsource/types"
)

func testEvent(id uint64) *types.EventRecord {
	return &types.EventRecord{
		EventID:     id,
		TelID:       1,
		EventType:   types.TriggerShower,
		TriggerTime: timecode.HighRes{S: 1697234667},
		Waveform:    []byte{1, 2, 3, 4},
		PixelStatus: []byte{0x0c},
	}
}

func TestSink_FlushOnCount(t *testing.T) {
	client := export.NewStubClient()
	sink := export.NewSink(client, export.SinkOptions{FlushCount: 2})

	for id := uint64(1); id <= 5; id++ {
		if err := sink.WriteEvent(t.Context(), testEvent(id)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// 5 events with threshold 2: two full batches flushed, one buffered.
	if len(client.Batches) != 2 {
		t.Fatalf("expected 2 flushed batches, got %d", len(client.Batches))
	}
	for i, batch := range client.Batches {
		if len(batch) != 2 {
			t.Errorf("batch %d size = %d, want 2", i, len(batch))
		}
	}

	if err := sink.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if len(client.Batches) != 3 {
		t.Errorf("close should flush the remainder, got %d batches", len(client.Batches))
	}
	if !client.Closed {
		t.Error("close should propagate to the client")
	}
}

func TestSink_FlushOnBytes(t *testing.T) {
	client := export.NewStubClient()
	sink := export.NewSink(client, export.SinkOptions{FlushCount: 1000, FlushBytes: 8})

	// Two events carry 5 payload bytes each; the second crosses 8 bytes.
	if err := sink.WriteEvent(t.Context(), testEvent(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.Batches) != 0 {
		t.Fatalf("first event should stay buffered, got %d batches", len(client.Batches))
	}
	if err := sink.WriteEvent(t.Context(), testEvent(2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.Batches) != 1 || len(client.Batches[0]) != 2 {
		t.Errorf("expected one flushed batch of 2 events, got %v", client.Batches)
	}
}

func TestSink_WriteRunMetaFlushesFirst(t *testing.T) {
	client := export.NewStubClient()
	sink := export.NewSink(client, export.SinkOptions{})

	if err := sink.WriteEvent(t.Context(), testEvent(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	meta := &types.RunMeta{ObsID: 27, EventCount: 1}
	if err := sink.WriteRunMeta(t.Context(), meta); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(client.Batches) != 1 {
		t.Errorf("pending events must be flushed before run metadata, got %d batches", len(client.Batches))
	}
	if len(client.RunMetas) != 1 || client.RunMetas[0].ObsID != 27 {
		t.Errorf("run metas = %v, want the written meta", client.RunMetas)
	}
}

func TestSink_WriteFailureSurfaces(t *testing.T) {
	client := export.NewStubClient()
	client.FailWrites = errors.New("disk full")

	collector := metrics.NewCollector(27, 1, "acada_dpps_icd")
	sink := export.NewSink(client, export.SinkOptions{FlushCount: 1, Collector: collector})

	err := sink.WriteEvent(t.Context(), testEvent(1))
	if err == nil {
		t.Fatal("expected the client failure to surface")
	}

	snap := collector.Snapshot()
	if snap.ExportWriteFailure != 1 {
		t.Errorf("ExportWriteFailure = %d, want 1", snap.ExportWriteFailure)
	}
	if snap.ExportWriteSuccess != 0 {
		t.Errorf("ExportWriteSuccess = %d, want 0", snap.ExportWriteSuccess)
	}
}

func TestSink_CloseIdempotent(t *testing.T) {
	client := export.NewStubClient()
	sink := export.NewSink(client, export.SinkOptions{})

	if err := sink.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := export.Config{Dataset: "zfits", Site: "north", TelID: 1, Day: "2023-10-13", ObsID: 27}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*export.Config)
	}{
		{"missing dataset", func(c *export.Config) { c.Dataset = "" }},
		{"missing site", func(c *export.Config) { c.Site = "" }},
		{"missing day", func(c *export.Config) { c.Day = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
