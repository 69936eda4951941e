package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/cta-observatory/zfits-runsource/cli/render"
	"github.com/cta-observatory/zfits-runsource/cli/views"
	"github.com/cta-observatory/zfits-runsource/iox"
)

// StatsCommand returns the stats command.
// Stats is a full dry-run assembly pass that reports the metrics snapshot.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show assembly statistics for a run",
		Flags:  append(SourceFlags(), ReadOnlyFlags()...),
		Action: statsAction,
	}
}

func statsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	fileCfg, err := loadFileConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitIO)
	}
	srcCfg, err := resolveSourceConfig(c, fileCfg)
	if err != nil {
		return cli.Exit(err.Error(), exitIO)
	}

	src, collector, _, err := buildSource(c, srcCfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open run: %v", err), exitIO)
	}
	defer iox.DiscardClose(src)

	start := time.Now()
	for {
		_, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return cli.Exit(err.Error(), errToExitCode(err))
		}
	}
	elapsed := time.Since(start)

	meta := src.RunMeta()
	snap := collector.Snapshot()

	view := &views.StatsView{
		ObsID:             meta.ObsID,
		TelID:             meta.TelID,
		Convention:        string(srcCfg.Convention),
		FilesOpened:       snap.FilesOpened,
		FilesConsumed:     snap.FilesConsumed,
		EventsYielded:     snap.EventsYielded,
		GapWarnings:       snap.GapWarnings,
		DuplicateWarnings: snap.DuplicateWarnings,
		MissingEvents:     snap.MissingEvents,
		DecodeErrors:      snap.DecodeErrors,
		ElapsedMs:         elapsed.Milliseconds(),
	}
	if secs := elapsed.Seconds(); secs > 0 {
		view.EventsPerSecond = float64(snap.EventsYielded) / secs
	}

	if c.Bool("tui") {
		return r.RenderTUI("stats_run", view)
	}
	return r.Render(view)
}
