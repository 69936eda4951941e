package export

import (
	"context"
	"sync"

	"github.com/cta-observatory/zfits-runsource/metrics"
	"github.com/cta-observatory/zfits-runsource/types"
)

// Default buffered sink thresholds.
const (
	DefaultFlushCount = 1024
	DefaultFlushBytes = 4 * 1024 * 1024
)

// Sink consumes assembled events for persistence.
// WriteEvent may buffer; Flush forces pending data out. Close flushes.
type Sink struct {
	mu sync.Mutex

	client    Client
	collector *metrics.Collector

	flushCount int
	flushBytes int64

	buf      []*types.EventRecord
	bufBytes int64
	closed   bool
}

// SinkOptions tunes sink buffering.
type SinkOptions struct {
	// FlushCount flushes after this many buffered events (0 = default).
	FlushCount int
	// FlushBytes flushes after this many buffered waveform bytes (0 = default).
	FlushBytes int64
	// Collector receives write counters. Nil is valid.
	Collector *metrics.Collector
}

// NewSink creates a buffered sink over the given client.
func NewSink(client Client, opts SinkOptions) *Sink {
	if opts.FlushCount <= 0 {
		opts.FlushCount = DefaultFlushCount
	}
	if opts.FlushBytes <= 0 {
		opts.FlushBytes = DefaultFlushBytes
	}
	return &Sink{
		client:     client,
		collector:  opts.Collector,
		flushCount: opts.FlushCount,
		flushBytes: opts.FlushBytes,
	}
}

// WriteEvent buffers one event, flushing when a threshold is crossed.
func (s *Sink) WriteEvent(ctx context.Context, event *types.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = append(s.buf, event)
	s.bufBytes += int64(len(event.Waveform) + len(event.PixelStatus))

	if len(s.buf) >= s.flushCount || s.bufBytes >= s.flushBytes {
		return s.flushLocked(ctx)
	}
	return nil
}

// WriteRunMeta flushes pending events, then writes the run metadata record.
// Call once, after the assembly is exhausted.
func (s *Sink) WriteRunMeta(ctx context.Context, meta *types.RunMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushLocked(ctx); err != nil {
		return err
	}
	if err := s.client.WriteRunMeta(ctx, meta); err != nil {
		s.collector.IncExportWriteFailure()
		return err
	}
	s.collector.IncExportWriteSuccess()
	return nil
}

// Flush forces buffered events out.
func (s *Sink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

// flushLocked writes and clears the buffer. Caller must hold s.mu.
func (s *Sink) flushLocked(ctx context.Context) error {
	if len(s.buf) == 0 {
		return nil
	}

	batch := s.buf
	s.buf = nil
	s.bufBytes = 0

	if err := s.client.WriteEvents(ctx, batch); err != nil {
		s.collector.IncExportWriteFailure()
		return err
	}
	s.collector.IncExportWriteSuccess()
	return nil
}

// Close flushes pending events and releases the client.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.flushLocked(context.Background()); err != nil {
		_ = s.client.Close()
		return err
	}
	return s.client.Close()
}

// StubClient is a test client that records writes without persisting.
type StubClient struct {
	mu       sync.Mutex
	Batches  [][]*types.EventRecord
	RunMetas []*types.RunMeta
	Closed   bool
	// FailWrites, when set, makes every write return this error.
	FailWrites error
}

// NewStubClient creates a new stub client.
func NewStubClient() *StubClient {
	return &StubClient{}
}

// WriteEvents implements Client.
func (c *StubClient) WriteEvents(_ context.Context, events []*types.EventRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailWrites != nil {
		return c.FailWrites
	}
	c.Batches = append(c.Batches, events)
	return nil
}

// WriteRunMeta implements Client.
func (c *StubClient) WriteRunMeta(_ context.Context, meta *types.RunMeta) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailWrites != nil {
		return c.FailWrites
	}
	c.RunMetas = append(c.RunMetas, meta)
	return nil
}

// Close implements Client.
func (c *StubClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

// Verify StubClient implements Client.
var _ Client = (*StubClient)(nil)
