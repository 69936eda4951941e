package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/cta-observatory/zfits-runsource/adapter"
	adapterredis "github.com/cta-observatory/zfits-runsource/adapter/redis"
	adapterwebhook "github.com/cta-observatory/zfits-runsource/adapter/webhook"
	"github.com/cta-observatory/zfits-runsource/assemble"
	"github.com/cta-observatory/zfits-runsource/cli/config"
	"github.com/cta-observatory/zfits-runsource/export"
	"github.com/cta-observatory/zfits-runsource/iox"
	"github.com/cta-observatory/zfits-runsource/log"
	"github.com/cta-observatory/zfits-runsource/metrics"
	"github.com/cta-observatory/zfits-runsource/source"
	"github.com/cta-observatory/zfits-runsource/types"
)

// Exit codes for the assemble command.
const (
	exitSuccess     = 0
	exitConsistency = 1
	exitOutOfOrder  = 2
	exitIO          = 3
)

// ContractVersion tags the run-assembled notification payload schema.
const ContractVersion = "1.0"

// AssembleCommand returns the assemble command.
// This is the only command that writes anywhere.
func AssembleCommand() *cli.Command {
	flags := SourceFlags()
	flags = append(flags,
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Suppress the assembly summary",
		},
		// Export flags
		&cli.StringFlag{
			Name:  "storage-backend",
			Usage: "Export backend: fs or s3 (no export when unset)",
		},
		&cli.StringFlag{
			Name:  "storage-path",
			Usage: "Base directory for the fs backend",
		},
		&cli.StringFlag{
			Name:  "storage-bucket",
			Usage: "Bucket for the s3 backend",
		},
		&cli.StringFlag{
			Name:  "storage-prefix",
			Usage: "Key prefix for the s3 backend",
		},
		&cli.StringFlag{
			Name:  "storage-region",
			Usage: "AWS region for the s3 backend",
		},
		&cli.StringFlag{
			Name:  "storage-dataset",
			Usage: "Lode dataset ID",
			Value: export.DefaultDataset,
		},
		&cli.StringFlag{
			Name:  "site",
			Usage: "Observatory site partition key (e.g. north)",
		},
		&cli.IntFlag{
			Name:  "flush-count",
			Usage: "Export flush threshold in events",
		},
		&cli.Int64Flag{
			Name:  "flush-bytes",
			Usage: "Export flush threshold in buffered waveform bytes",
		},
		// Notification flags
		&cli.StringFlag{
			Name:  "notify",
			Usage: "Notification adapter: redis or webhook (none when unset)",
		},
		&cli.StringFlag{
			Name:  "notify-url",
			Usage: "Adapter URL (redis:// or http(s)://)",
		},
		&cli.StringFlag{
			Name:  "notify-channel",
			Usage: "Redis pub/sub channel",
		},
	)

	return &cli.Command{
		Name:   "assemble",
		Usage:  "Assemble an observation run and optionally export it",
		Flags:  flags,
		Action: assembleAction,
	}
}

func assembleAction(c *cli.Context) error {
	fileCfg, err := loadFileConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitIO)
	}

	srcCfg, err := resolveSourceConfig(c, fileCfg)
	if err != nil {
		return cli.Exit(err.Error(), exitIO)
	}

	src, collector, logger, err := buildSource(c, srcCfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open run: %v", err), exitIO)
	}
	defer iox.DiscardClose(src)

	meta := src.RunMeta()
	logger.Info("run opened", map[string]any{
		"obs_id": meta.ObsID,
		"sb_id":  meta.SBID,
		"tel_id": meta.TelID,
		"camera": meta.CameraName,
		"files":  len(meta.Files),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	site := resolveSite(c, fileCfg)
	startTime := time.Now()

	sink, storagePath, err := buildSinkFromFlags(c, fileCfg, meta, site, startTime, collector)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to initialize export: %v", err), exitIO)
	}

	assemblyErr := drain(ctx, src, sink, logger)

	if sink != nil {
		finalMeta := src.RunMeta()
		if assemblyErr == nil {
			if err := sink.WriteRunMeta(ctx, &finalMeta); err != nil {
				assemblyErr = err
			}
		}
		if err := sink.Close(); err != nil && assemblyErr == nil {
			assemblyErr = err
		}
	}

	duration := time.Since(startTime)
	snap := collector.Snapshot()
	finalMeta := src.RunMeta()

	if notifyErr := notify(ctx, c, fileCfg, &finalMeta, snap, site, storagePath, assemblyErr, duration); notifyErr != nil {
		// Notification failure never masks the assembly outcome.
		fmt.Fprintf(os.Stderr, "Warning: notification failed: %v\n", notifyErr)
	}

	if !c.Bool("quiet") {
		printAssemblySummary(&finalMeta, src.Warnings(), snap, duration, assemblyErr)
	}

	if assemblyErr != nil {
		return cli.Exit(assemblyErr.Error(), errToExitCode(assemblyErr))
	}
	return nil
}

// drain pulls every event from the source, forwarding to the sink when
// export is enabled. Stops on context cancellation.
func drain(ctx context.Context, src source.EventSource, sink *export.Sink, logger *log.Logger) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		event, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if sink != nil {
			if err := sink.WriteEvent(ctx, event); err != nil {
				return err
			}
		}
		logger.Debug("event yielded", map[string]any{
			"event_id": event.EventID,
		})
	}
}

func resolveSite(c *cli.Context, fileCfg *config.Config) string {
	if c.IsSet("site") {
		return c.String("site")
	}
	if fileCfg.Site != "" {
		return fileCfg.Site
	}
	return "north"
}

// buildSinkFromFlags builds the export sink, or nil when export is not
// configured. The returned path labels the storage target for the
// notification payload.
func buildSinkFromFlags(c *cli.Context, fileCfg *config.Config, meta types.RunMeta, site string, startTime time.Time, collector *metrics.Collector) (*export.Sink, string, error) {
	backend := c.String("storage-backend")
	if backend == "" {
		backend = fileCfg.Storage.Backend
	}
	if backend == "" {
		return nil, "", nil
	}

	dataset := c.String("storage-dataset")
	if !c.IsSet("storage-dataset") && fileCfg.Storage.Dataset != "" {
		dataset = fileCfg.Storage.Dataset
	}

	day := export.DeriveDay(meta.ObsStart.Time())
	if meta.ObsStart.IsZero() {
		day = export.DeriveDay(startTime)
	}

	cfg := export.Config{
		Dataset: dataset,
		Site:    site,
		TelID:   meta.TelID,
		Day:     day,
		ObsID:   meta.ObsID,
	}

	var client export.Client
	var storagePath string
	var err error

	switch backend {
	case "fs":
		root := c.String("storage-path")
		if root == "" {
			root = fileCfg.Storage.Path
		}
		if root == "" {
			return nil, "", fmt.Errorf("fs backend requires --storage-path")
		}
		client, err = export.NewLodeClient(cfg, root)
		storagePath = root
	case "s3":
		s3cfg := export.S3Config{
			Bucket: c.String("storage-bucket"),
			Prefix: c.String("storage-prefix"),
			Region: c.String("storage-region"),
		}
		if s3cfg.Bucket == "" {
			s3cfg.Bucket = fileCfg.Storage.Bucket
		}
		if s3cfg.Prefix == "" {
			s3cfg.Prefix = fileCfg.Storage.Prefix
		}
		if s3cfg.Region == "" {
			s3cfg.Region = fileCfg.Storage.Region
		}
		client, err = export.NewS3Client(cfg, s3cfg)
		storagePath = fmt.Sprintf("s3://%s/%s", s3cfg.Bucket, s3cfg.Prefix)
	default:
		return nil, "", fmt.Errorf("unsupported storage-backend: %s (must be fs or s3)", backend)
	}
	if err != nil {
		return nil, "", err
	}

	opts := export.SinkOptions{
		FlushCount: c.Int("flush-count"),
		FlushBytes: c.Int64("flush-bytes"),
		Collector:  collector,
	}
	if opts.FlushCount == 0 {
		opts.FlushCount = fileCfg.Storage.FlushCount
	}
	if opts.FlushBytes == 0 {
		opts.FlushBytes = fileCfg.Storage.FlushBytes
	}

	return export.NewSink(client, opts), storagePath, nil
}

// notify publishes the run-assembled event when an adapter is configured.
func notify(ctx context.Context, c *cli.Context, fileCfg *config.Config, meta *types.RunMeta, snap metrics.Snapshot, site, storagePath string, assemblyErr error, duration time.Duration) error {
	kind := c.String("notify")
	if kind == "" {
		kind = fileCfg.Adapter.Type
	}
	if kind == "" {
		return nil
	}

	url := c.String("notify-url")
	if url == "" {
		url = fileCfg.Adapter.URL
	}

	var a adapter.Adapter
	var err error
	switch kind {
	case "redis":
		channel := c.String("notify-channel")
		if channel == "" {
			channel = fileCfg.Adapter.Channel
		}
		redisCfg := adapterredis.Config{
			URL:     url,
			Channel: channel,
			Timeout: fileCfg.Adapter.Timeout.Duration,
		}
		if fileCfg.Adapter.Retries != nil {
			redisCfg.Retries = *fileCfg.Adapter.Retries
		}
		a, err = adapterredis.New(redisCfg)
	case "webhook":
		webhookCfg := adapterwebhook.Config{
			URL:     url,
			Headers: fileCfg.Adapter.Headers,
			Timeout: fileCfg.Adapter.Timeout.Duration,
		}
		if fileCfg.Adapter.Retries != nil {
			webhookCfg.Retries = *fileCfg.Adapter.Retries
		}
		a, err = adapterwebhook.New(webhookCfg)
	default:
		return fmt.Errorf("unsupported notify adapter: %s (must be redis or webhook)", kind)
	}
	if err != nil {
		return err
	}
	defer iox.DiscardClose(a)

	event := &adapter.RunAssembledEvent{
		ContractVersion: ContractVersion,
		EventType:       "run_assembled",
		ObsID:           meta.ObsID,
		SBID:            meta.SBID,
		TelID:           meta.TelID,
		Site:            site,
		Day:             export.DeriveDay(meta.ObsStart.Time()),
		Outcome:         outcomeString(assemblyErr),
		StoragePath:     storagePath,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		EventCount:      meta.EventCount,
		FirstEventID:    meta.FirstEventID,
		LastEventID:     meta.LastEventID,
		GapWarnings:     snap.GapWarnings,
		DuplicateCount:  snap.DuplicateWarnings,
		DurationMs:      duration.Milliseconds(),
	}
	return a.Publish(ctx, event)
}

func outcomeString(err error) string {
	var ce *assemble.ConsistencyError
	var oe *assemble.OutOfOrderError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &ce):
		return "consistency_error"
	case errors.As(err, &oe):
		return "ordering_error"
	default:
		return "io_error"
	}
}

func errToExitCode(err error) int {
	var ce *assemble.ConsistencyError
	var oe *assemble.OutOfOrderError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ce):
		return exitConsistency
	case errors.As(err, &oe):
		return exitOutOfOrder
	default:
		return exitIO
	}
}

func printAssemblySummary(meta *types.RunMeta, warnings []types.AssemblyWarning, snap metrics.Snapshot, duration time.Duration, assemblyErr error) {
	fmt.Printf("\n=== Assembly Result ===\n")
	fmt.Printf("Obs ID:       %d\n", meta.ObsID)
	fmt.Printf("SB ID:        %d\n", meta.SBID)
	fmt.Printf("Tel ID:       %d\n", meta.TelID)
	fmt.Printf("Camera:       %s\n", meta.CameraName)
	fmt.Printf("Outcome:      %s\n", outcomeString(assemblyErr))
	fmt.Printf("Duration:     %s\n", duration.Round(time.Millisecond))
	fmt.Printf("Events:       %d\n", meta.EventCount)
	fmt.Printf("Files:        %d\n", len(meta.Files))

	if snap.GapWarnings > 0 || snap.DuplicateWarnings > 0 {
		fmt.Printf("\n=== Findings ===\n")
		fmt.Printf("Gaps:         %d (%d missing events)\n", snap.GapWarnings, snap.MissingEvents)
		fmt.Printf("Duplicates:   %d\n", snap.DuplicateWarnings)
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w.String())
		}
	}

	if snap.ExportWriteSuccess > 0 || snap.ExportWriteFailure > 0 {
		fmt.Printf("\n=== Export ===\n")
		fmt.Printf("Batches OK:   %d\n", snap.ExportWriteSuccess)
		fmt.Printf("Batches Fail: %d\n", snap.ExportWriteFailure)
	}

	if assemblyErr != nil {
		fmt.Printf("\nError: %v\n", assemblyErr)
	}
}
