package types

import "github.com/cta-observatory/zfits-runsource/timecode"

// RunMeta is the unified run-level metadata for one assembled observation.
//
// Identity fields (ObsID, SBID, TelID, CameraName) are established from the
// first file's header and must agree across every contributing file; the
// assembler fails rather than silently merging disagreeing files. Counters
// and the Last* fields are updated as events are yielded.
type RunMeta struct {
	// ObsID is the observation (run) identifier.
	ObsID uint64 `json:"obs_id"`
	// SBID is the scheduling block identifier.
	SBID uint64 `json:"sb_id"`
	// TelID is the telescope identifier.
	TelID uint16 `json:"tel_id"`
	// CameraName is the camera identity shared by all contributing files.
	CameraName string `json:"camera_name"`
	// DataSources are the acquisition streams contributing to the run.
	DataSources []string `json:"data_sources"`
	// Files are the contributing file paths in consumption order.
	Files []string `json:"files"`
	// ObsStart is the declared observation start time.
	ObsStart timecode.HighRes `json:"obs_start"`
	// FirstEventID and LastEventID bound the yielded ordering keys.
	FirstEventID uint64 `json:"first_event_id"`
	LastEventID  uint64 `json:"last_event_id"`
	// FirstEventTime and LastEventTime bound the yielded trigger times.
	FirstEventTime timecode.HighRes `json:"first_event_time"`
	LastEventTime  timecode.HighRes `json:"last_event_time"`
	// EventCount is the number of events yielded so far.
	EventCount int64 `json:"event_count"`
}

// AddFile records a contributing file and its stream.
func (m *RunMeta) AddFile(path, dataSource string) {
	m.Files = append(m.Files, path)
	for _, ds := range m.DataSources {
		if ds == dataSource {
			return
		}
	}
	m.DataSources = append(m.DataSources, dataSource)
}

// ObserveEvent updates event-derived fields for one yielded event.
func (m *RunMeta) ObserveEvent(e *EventRecord) {
	if m.EventCount == 0 {
		m.FirstEventID = e.EventID
		m.FirstEventTime = e.TriggerTime
	}
	m.LastEventID = e.EventID
	m.LastEventTime = e.TriggerTime
	m.EventCount++
}
