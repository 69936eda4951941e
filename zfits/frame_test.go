package zfits_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/cta-observatory/zfits-runsource/timecode"
	"github.com/cta-observatory/zfits-runsource/types"
	"github.com/cta-observatory/zfits-runsource/zfits"
)

func sampleHeader() *types.FileHeader {
	return &types.FileHeader{
		ObsID:      27,
		SBID:       20,
		TelID:      1,
		DataSource: "SDH0001",
		ChunkID:    0,
		CameraName: "LSTCam",
		NumPixels:  1855,
		NumSamples: 40,
		ObsStart:   timecode.HighRes{S: 1697234667, QNS: 12},
	}
}

func sampleEvent(id uint64) *types.EventRecord {
	return &types.EventRecord{
		EventID:     id,
		TelID:       1,
		EventType:   types.TriggerShower,
		TriggerTime: timecode.HighRes{S: 1697234667, QNS: uint32(id * 4)},
		NumChannels: 1,
		NumPixels:   4,
		NumSamples:  2,
		Waveform:    []byte{1, 2, 3, 4, 5, 6, 7, 8},
		PixelStatus: []byte{0x0c, 0x0c, 0x0c, 0x0c},
	}
}

func TestHeaderFrame_RoundTrip(t *testing.T) {
	want := sampleHeader()

	frame, err := zfits.EncodeHeader(want)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	dec := zfits.NewFrameDecoder(bytes.NewReader(frame))
	payload, err := dec.ReadFrame()
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	got, err := zfits.DecodeHeader(payload)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	if *got != *want {
		t.Errorf("header round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	if _, err := dec.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Errorf("expected clean EOF after the only frame, got %v", err)
	}
}

func TestEventFrame_RoundTrip(t *testing.T) {
	want := sampleEvent(42)

	frame, err := zfits.EncodeEvent(want)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	dec := zfits.NewFrameDecoder(bytes.NewReader(frame))
	payload, err := dec.ReadFrame()
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	got, err := zfits.DecodeEvent(payload)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	if got.EventID != want.EventID || got.TriggerTime != want.TriggerTime {
		t.Errorf("event round trip mismatch: got %+v, want %+v", got, want)
	}
	if !bytes.Equal(got.Waveform, want.Waveform) {
		t.Errorf("waveform mismatch: got %v, want %v", got.Waveform, want.Waveform)
	}
}

func TestDecodeHeader_RejectsEventFrame(t *testing.T) {
	frame, err := zfits.EncodeEvent(sampleEvent(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = zfits.DecodeHeader(frame[zfits.LengthPrefixSize:])
	var frameErr *zfits.FrameError
	if !errors.As(err, &frameErr) || frameErr.Kind != zfits.FrameErrorDecode {
		t.Errorf("error = %v, want a decode FrameError", err)
	}
	if zfits.IsFatalFrameError(err) {
		t.Error("a type mismatch is a decode error, not a fatal framing error")
	}
}

func TestReadFrame_TruncatedPayload(t *testing.T) {
	frame, err := zfits.EncodeEvent(sampleEvent(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dec := zfits.NewFrameDecoder(bytes.NewReader(frame[:len(frame)-3]))
	_, err = dec.ReadFrame()

	var frameErr *zfits.FrameError
	if !errors.As(err, &frameErr) || frameErr.Kind != zfits.FrameErrorPartial {
		t.Fatalf("error = %v, want a partial FrameError", err)
	}
	if !zfits.IsFatalFrameError(err) {
		t.Error("a truncated payload must be fatal")
	}
}

func TestReadFrame_TruncatedPrefix(t *testing.T) {
	dec := zfits.NewFrameDecoder(bytes.NewReader([]byte{0x00, 0x01}))
	_, err := dec.ReadFrame()

	var frameErr *zfits.FrameError
	if !errors.As(err, &frameErr) || frameErr.Kind != zfits.FrameErrorPartial {
		t.Errorf("error = %v, want a partial FrameError", err)
	}
}

func TestReadFrame_TooLarge(t *testing.T) {
	var prefix [zfits.LengthPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], zfits.MaxPayloadSize+1)

	dec := zfits.NewFrameDecoder(bytes.NewReader(prefix[:]))
	_, err := dec.ReadFrame()

	var frameErr *zfits.FrameError
	if !errors.As(err, &frameErr) || frameErr.Kind != zfits.FrameErrorTooLarge {
		t.Fatalf("error = %v, want a too-large FrameError", err)
	}
	if !zfits.IsFatalFrameError(err) {
		t.Error("an oversized frame must be fatal")
	}
}

func TestReadFrame_EmptyStream(t *testing.T) {
	dec := zfits.NewFrameDecoder(bytes.NewReader(nil))
	if _, err := dec.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF on an empty stream, got %v", err)
	}
}
