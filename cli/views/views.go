// Package views defines the data payloads shared by every CLI output path.
//
// The same payload is rendered as json, table, yaml, or TUI; no output mode
// gets fields the others do not.
package views

// InspectFileView is the payload for `zfitsrun inspect file`.
type InspectFileView struct {
	Path         string `json:"path"`
	Convention   string `json:"convention,omitempty"`
	ObsID        uint64 `json:"obs_id"`
	SBID         uint64 `json:"sb_id"`
	TelID        uint16 `json:"tel_id"`
	TelName      string `json:"tel_name,omitempty"`
	DataSource   string `json:"data_source"`
	ChunkID      int    `json:"chunk_id"`
	CameraName   string `json:"camera_name"`
	NumPixels    uint32 `json:"num_pixels"`
	NumSamples   uint16 `json:"num_samples"`
	ObsStart     string `json:"obs_start"`
	EventCount   int64  `json:"event_count"`
	FirstEventID uint64 `json:"first_event_id"`
	LastEventID  uint64 `json:"last_event_id"`
}

// InspectRunView is the payload for `zfitsrun inspect run`: the result of a
// dry-run assembly over every discovered file of the run.
type InspectRunView struct {
	ObsID             uint64   `json:"obs_id"`
	SBID              uint64   `json:"sb_id"`
	TelID             uint16   `json:"tel_id"`
	TelName           string   `json:"tel_name,omitempty"`
	CameraName        string   `json:"camera_name"`
	Convention        string   `json:"convention"`
	DataSources       []string `json:"data_sources"`
	Files             []string `json:"files"`
	EventCount        int64    `json:"event_count"`
	FirstEventID      uint64   `json:"first_event_id"`
	LastEventID       uint64   `json:"last_event_id"`
	FirstEventTime    string   `json:"first_event_time"`
	LastEventTime     string   `json:"last_event_time"`
	GapWarnings       int      `json:"gap_warnings"`
	DuplicateWarnings int      `json:"duplicate_warnings"`
	MissingEvents     uint64   `json:"missing_events"`
}

// StatsView is the payload for `zfitsrun stats`: the metrics snapshot of one
// full assembly pass.
type StatsView struct {
	ObsID             uint64  `json:"obs_id"`
	TelID             uint16  `json:"tel_id"`
	Convention        string  `json:"convention"`
	FilesOpened       int64   `json:"files_opened"`
	FilesConsumed     int64   `json:"files_consumed"`
	EventsYielded     int64   `json:"events_yielded"`
	GapWarnings       int64   `json:"gap_warnings"`
	DuplicateWarnings int64   `json:"duplicate_warnings"`
	MissingEvents     int64   `json:"missing_events"`
	DecodeErrors      int64   `json:"decode_errors"`
	ElapsedMs         int64   `json:"elapsed_ms"`
	EventsPerSecond   float64 `json:"events_per_second"`
}
