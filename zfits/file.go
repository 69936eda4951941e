package zfits

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cta-observatory/zfits-runsource/types"
)

// File is one open chunk file: a decoder session over its frame stream.
// Files are read once, front to back; the header is decoded at Open and
// events are pulled one at a time via NextEvent.
type File struct {
	path    string
	f       *os.File
	decoder *FrameDecoder
	header  types.FileHeader
	closed  bool
}

// Open opens a chunk file and decodes its header frame.
// A file without a leading header frame is corrupt.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	decoder := NewFrameDecoder(f)
	payload, err := decoder.ReadFrame()
	if err != nil {
		_ = f.Close()
		if errors.Is(err, io.EOF) {
			return nil, &FrameError{
				Kind: FrameErrorPartial,
				Msg:  fmt.Sprintf("%s: empty file, missing header frame", path),
			}
		}
		return nil, err
	}

	header, err := DecodeHeader(payload)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &File{
		path:    path,
		f:       f,
		decoder: decoder,
		header:  *header,
	}, nil
}

// Path returns the file path this handle reads.
func (f *File) Path() string {
	return f.path
}

// Header returns the decoded file header.
func (f *File) Header() types.FileHeader {
	return f.header
}

// NextEvent decodes the next event frame.
// Returns io.EOF when the file is exhausted.
func (f *File) NextEvent() (*types.EventRecord, error) {
	if f.closed {
		return nil, os.ErrClosed
	}

	payload, err := f.decoder.ReadFrame()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}

	event, err := DecodeEvent(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return event, nil
}

// Close releases the underlying file handle. Safe to call twice.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.f.Close()
}
