package types

import "github.com/cta-observatory/zfits-runsource/timecode"

// HeaderFrameType is the type discriminant for the header frame that opens
// every chunk file in the stream container.
const HeaderFrameType = "header"

// FileHeader is the per-file run metadata decoded from a chunk file.
//
// It merges the DataStream and CameraConfiguration blocks the acquisition
// writer places at the start of each file. Every chunk of a run carries the
// same identity fields; the assembler cross-checks them.
type FileHeader struct {
	// ObsID is the observation (run) identifier.
	ObsID uint64 `msgpack:"obs_id" json:"obs_id"`
	// SBID is the scheduling block identifier.
	SBID uint64 `msgpack:"sb_id" json:"sb_id"`
	// TelID is the telescope identifier.
	TelID uint16 `msgpack:"tel_id" json:"tel_id"`
	// DataSource is the acquisition stream that wrote this file (e.g. SDH001).
	DataSource string `msgpack:"data_source" json:"data_source"`
	// ChunkID is the sequence number of this file within its stream.
	ChunkID int `msgpack:"chunk_id" json:"chunk_id"`
	// CameraName is the camera this stream reads out (e.g. LSTCam).
	CameraName string `msgpack:"camera_name" json:"camera_name"`
	// NumPixels is the camera pixel count from the camera configuration.
	NumPixels uint32 `msgpack:"num_pixels" json:"num_pixels"`
	// NumSamples is the nominal waveform length from the camera configuration.
	NumSamples uint16 `msgpack:"num_samples" json:"num_samples"`
	// ObsStart is the declared observation start time.
	ObsStart timecode.HighRes `msgpack:"obs_start" json:"obs_start"`
}
