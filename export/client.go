package export

import (
	"context"

	"github.com/justapithecus/lode/lode"

	"github.com/cta-observatory/zfits-runsource/types"
)

// Client abstracts the Lode storage client.
// Real implementations connect to Lode; stubs are used for testing.
type Client interface {
	// WriteEvents writes a batch of event records.
	// Must preserve ordering within the batch.
	WriteEvents(ctx context.Context, events []*types.EventRecord) error

	// WriteRunMeta writes the final run metadata record.
	WriteRunMeta(ctx context.Context, meta *types.RunMeta) error

	// Close releases client resources.
	Close() error
}

// LodeClient is a real Lode-backed implementation of Client.
// Uses Lode's HiveLayout with partition keys: site/tel_id/day/obs_id.
type LodeClient struct {
	dataset lode.Dataset
	config  Config
}

// NewLodeClient creates a new Lode client with filesystem storage.
// The root parameter is the base directory for Hive-partitioned storage.
func NewLodeClient(cfg Config, root string) (*LodeClient, error) {
	return NewLodeClientWithFactory(cfg, lode.NewFSFactory(root))
}

// NewLodeClientWithFactory creates a new Lode client with a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func NewLodeClientWithFactory(cfg Config, factory lode.StoreFactory) (*LodeClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ds, err := lode.NewDataset(
		lode.DatasetID(cfg.Dataset),
		factory,
		lode.WithHiveLayout("site", "tel_id", "day", "obs_id"),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, WrapInitError(err, cfg.Dataset)
	}

	return &LodeClient{dataset: ds, config: cfg}, nil
}

// WriteEvents writes a batch of event records to Lode.
func (c *LodeClient) WriteEvents(ctx context.Context, events []*types.EventRecord) error {
	if len(events) == 0 {
		return nil
	}

	records := make([]any, 0, len(events))
	for _, e := range events {
		records = append(records, toEventRecordMap(e, c.config))
	}

	_, err := c.dataset.Write(ctx, records, lode.Metadata{})
	return WrapWriteError(err, c.config.Dataset)
}

// WriteRunMeta writes the run metadata record to Lode.
func (c *LodeClient) WriteRunMeta(ctx context.Context, meta *types.RunMeta) error {
	_, err := c.dataset.Write(ctx, []any{toRunMetaRecordMap(meta, c.config)}, lode.Metadata{})
	return WrapWriteError(err, c.config.Dataset)
}

// Close releases client resources.
func (c *LodeClient) Close() error {
	return nil
}

// Verify LodeClient implements Client.
var _ Client = (*LodeClient)(nil)
