// Package types defines core domain types for the zfits run source.
//
//nolint:revive // types is a common Go package naming convention
package types

import "github.com/cta-observatory/zfits-runsource/timecode"

// EventFrameType is the type discriminant for event frames in the stream
// container.
const EventFrameType = "event"

// EventRecord is one decoded camera event.
//
// EventID is the ordering key: the acquisition system assigns strictly
// increasing event ids within an observation, and the assembler enforces
// that ordering across chunk boundaries. The waveform and pixel status
// payloads are opaque to this repository; they are produced by the decoder
// and owned by the consumer after yield.
type EventRecord struct {
	// EventID is the monotonic ordering key, scoped to the observation.
	EventID uint64 `msgpack:"event_id" json:"event_id"`
	// TelID is the telescope the event was recorded by.
	TelID uint16 `msgpack:"tel_id" json:"tel_id"`
	// EventType is the trigger type code as defined by the ACADA ICD.
	EventType uint8 `msgpack:"event_type" json:"event_type"`
	// TriggerTime is the high-resolution trigger timestamp.
	TriggerTime timecode.HighRes `msgpack:"trigger_time" json:"trigger_time"`
	// NumChannels is the number of gain channels in the waveform.
	NumChannels uint8 `msgpack:"num_channels" json:"num_channels"`
	// NumPixels is the number of pixels surviving data volume reduction.
	NumPixels uint32 `msgpack:"num_pixels" json:"num_pixels"`
	// NumSamples is the number of waveform samples per pixel.
	NumSamples uint16 `msgpack:"num_samples" json:"num_samples"`
	// Waveform is the raw sample payload, opaque to the assembler.
	Waveform []byte `msgpack:"waveform" json:"waveform,omitempty"`
	// PixelStatus is the per-pixel status payload, opaque to the assembler.
	PixelStatus []byte `msgpack:"pixel_status" json:"pixel_status,omitempty"`
	// FirstCellID is the readout chip first capacitor id per module.
	FirstCellID []byte `msgpack:"first_cell_id" json:"first_cell_id,omitempty"`
}

// Trigger type codes per the ACADA ICD.
const (
	TriggerShower      uint8 = 1
	TriggerMuon        uint8 = 4
	TriggerCalibration uint8 = 16
	TriggerPedestal    uint8 = 32
)
