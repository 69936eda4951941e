// Package cmd provides CLI commands for the zfitsrun binary.
package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/cta-observatory/zfits-runsource/cli/config"
	"github.com/cta-observatory/zfits-runsource/log"
	"github.com/cta-observatory/zfits-runsource/metrics"
	"github.com/cta-observatory/zfits-runsource/paths"
	"github.com/cta-observatory/zfits-runsource/source"
)

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for the read-only inspect and stats commands.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (inspect, stats only)",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error
// messages instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// SourceFlags returns the flags every assembling command shares: file
// discovery, merge toggles, and gap tolerance.
func SourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "path",
			Usage: "First chunk file of one data source (discovery anchor)",
		},
		&cli.StringSliceFlag{
			Name:  "file",
			Usage: "Explicit chunk file (repeatable, bypasses discovery)",
		},
		&cli.StringFlag{
			Name:  "convention",
			Usage: "Filename convention: acada_rel1 or acada_dpps_icd",
		},
		&cli.BoolFlag{
			Name:  "all-source-ids",
			Usage: "Merge all parallel data sources of the run",
			Value: true,
		},
		&cli.BoolFlag{
			Name:  "all-chunks",
			Usage: "Follow subsequent chunk files of each data source",
			Value: true,
		},
		&cli.BoolFlag{
			Name:  "ignore-timestamp",
			Usage: "Allow parallel streams with differing file timestamps",
		},
		&cli.Uint64Flag{
			Name:  "gap-tolerance",
			Usage: "Largest accepted event id jump before a gap warning",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to zfitsrun.yaml config file",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
}

// loadFileConfig loads the optional YAML config named by --config.
// Returns an empty config when the flag is absent.
func loadFileConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return &config.Config{}, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// resolveSourceConfig merges file config and CLI flags into a source
// configuration. Flags set on the command line win over the config file,
// which wins over built-in defaults.
func resolveSourceConfig(c *cli.Context, fileCfg *config.Config) (source.Config, error) {
	cfg := source.Config{
		Path:            c.String("path"),
		Paths:           c.StringSlice("file"),
		AllSourceIDs:    true,
		AllChunks:       true,
		IgnoreTimestamp: false,
		GapTolerance:    fileCfg.GapTolerance,
	}

	if fileCfg.Convention != "" {
		cfg.Convention = paths.Convention(fileCfg.Convention)
	}
	if fileCfg.AllSourceIDs != nil {
		cfg.AllSourceIDs = *fileCfg.AllSourceIDs
	}
	if fileCfg.AllChunks != nil {
		cfg.AllChunks = *fileCfg.AllChunks
	}
	if fileCfg.IgnoreTimestamp != nil {
		cfg.IgnoreTimestamp = *fileCfg.IgnoreTimestamp
	}

	if c.IsSet("convention") {
		cfg.Convention = paths.Convention(c.String("convention"))
	}
	if c.IsSet("all-source-ids") {
		cfg.AllSourceIDs = c.Bool("all-source-ids")
	}
	if c.IsSet("all-chunks") {
		cfg.AllChunks = c.Bool("all-chunks")
	}
	if c.IsSet("ignore-timestamp") {
		cfg.IgnoreTimestamp = c.Bool("ignore-timestamp")
	}
	if c.IsSet("gap-tolerance") {
		cfg.GapTolerance = c.Uint64("gap-tolerance")
	}

	switch cfg.Convention {
	case "", paths.ConventionRel1, paths.ConventionDPPSICD:
	default:
		return source.Config{}, fmt.Errorf("unknown convention: %s (must be %s or %s)",
			cfg.Convention, paths.ConventionRel1, paths.ConventionDPPSICD)
	}

	if len(cfg.Paths) == 0 && cfg.Path == "" {
		return source.Config{}, fmt.Errorf("either --path or --file is required")
	}

	return cfg, nil
}

// buildSource constructs the zfits event source plus its logger and
// collector from resolved configuration.
func buildSource(c *cli.Context, cfg source.Config) (source.EventSource, *metrics.Collector, *log.Logger, error) {
	collector := metrics.NewCollector(0, 0, string(cfg.Convention))
	cfg.Collector = collector

	logger := log.Nop()
	if c.Bool("verbose") {
		logger = log.NewLogger(log.Context{})
	}
	cfg.Logger = logger

	src, err := source.New(source.Name, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return src, collector, logger, nil
}
