package zfits

import (
	"bufio"
	"fmt"
	"os"

	"github.com/cta-observatory/zfits-runsource/types"
)

// Writer produces chunk files in the reference container format.
// Used by test fixtures and the convert tooling; the production writer
// lives in the acquisition system.
type Writer struct {
	path string
	f    *os.File
	buf  *bufio.Writer
}

// Create creates a chunk file and writes its header frame.
func Create(path string, header *types.FileHeader) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := &Writer{path: path, f: f, buf: bufio.NewWriter(f)}
	frame, err := EncodeHeader(header)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := w.buf.Write(frame); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: write header: %w", path, err)
	}
	return w, nil
}

// WriteEvent appends one event frame.
func (w *Writer) WriteEvent(event *types.EventRecord) error {
	frame, err := EncodeEvent(event)
	if err != nil {
		return err
	}
	if _, err := w.buf.Write(frame); err != nil {
		return fmt.Errorf("%s: write event: %w", w.path, err)
	}
	return nil
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.f.Close()
}
