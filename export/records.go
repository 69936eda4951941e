package export

import (
	"fmt"
	"time"

	"github.com/cta-observatory/zfits-runsource/types"
)

// RecordKind discriminator values for exported records.
const (
	RecordKindEvent   = "event"
	RecordKindRunMeta = "run_meta"
)

// DefaultDataset is the Lode dataset ID used when none is configured.
const DefaultDataset = "zfits"

// Config holds export partition configuration.
// All partition keys are required by the Hive layout.
type Config struct {
	// Dataset is the Lode dataset ID.
	Dataset string
	// Site is the partition key for the observatory site (e.g. north).
	Site string
	// TelID is the partition key for the telescope.
	TelID uint16
	// Day is the partition key derived from the observation start (YYYY-MM-DD UTC).
	Day string
	// ObsID is the partition key for the observation identifier.
	ObsID uint64
}

// Validate checks that all partition keys are set.
func (c Config) Validate() error {
	if c.Dataset == "" {
		return fmt.Errorf("export: dataset is required")
	}
	if c.Site == "" {
		return fmt.Errorf("export: site is required")
	}
	if c.Day == "" {
		return fmt.Errorf("export: day is required")
	}
	return nil
}

// DeriveDay computes the partition day from the observation start time.
// Format: YYYY-MM-DD in UTC.
func DeriveDay(start time.Time) string {
	return start.UTC().Format("2006-01-02")
}

// toEventRecordMap converts an EventRecord to a map for Lode storage.
// Lode HiveLayout requires records as map[string]any.
func toEventRecordMap(e *types.EventRecord, cfg Config) map[string]any {
	return map[string]any{
		"record_kind":  RecordKindEvent,
		"event_id":     e.EventID,
		"tel_id":       e.TelID,
		"event_type":   e.EventType,
		"time_s":       e.TriggerTime.S,
		"time_qns":     e.TriggerTime.QNS,
		"num_channels": e.NumChannels,
		"num_pixels":   e.NumPixels,
		"num_samples":  e.NumSamples,
		"waveform":     e.Waveform,
		"pixel_status": e.PixelStatus,
		// partition keys
		"site":   cfg.Site,
		"day":    cfg.Day,
		"obs_id": cfg.ObsID,
	}
}

// toRunMetaRecordMap converts the final RunMeta to a map for Lode storage.
func toRunMetaRecordMap(m *types.RunMeta, cfg Config) map[string]any {
	return map[string]any{
		"record_kind":      RecordKindRunMeta,
		"sb_id":            m.SBID,
		"camera_name":      m.CameraName,
		"data_sources":     m.DataSources,
		"files":            m.Files,
		"event_count":      m.EventCount,
		"first_event_id":   m.FirstEventID,
		"last_event_id":    m.LastEventID,
		"first_event_time": m.FirstEventTime.String(),
		"last_event_time":  m.LastEventTime.String(),
		// partition keys
		"tel_id": cfg.TelID,
		"site":   cfg.Site,
		"day":    cfg.Day,
		"obs_id": cfg.ObsID,
	}
}
