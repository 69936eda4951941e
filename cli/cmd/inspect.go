package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/cta-observatory/zfits-runsource/cli/render"
	"github.com/cta-observatory/zfits-runsource/cli/views"
	"github.com/cta-observatory/zfits-runsource/instrument"
	"github.com/cta-observatory/zfits-runsource/iox"
	"github.com/cta-observatory/zfits-runsource/types"
	"github.com/cta-observatory/zfits-runsource/zfits"
)

// telName resolves a telescope id against the embedded instrument tables.
// Unknown ids (test rigs, future array elements) yield an empty name.
func telName(telID uint16) string {
	ae, err := instrument.ArrayElementByID(int(telID))
	if err != nil {
		return ""
	}
	return ae.Name
}

// InspectCommand returns the inspect command with subcommands.
// Inspect is read-only: it never exports or notifies.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect a chunk file or a whole run",
		Subcommands: []*cli.Command{
			inspectFileCommand(),
			inspectRunCommand(),
		},
	}
}

func inspectFileCommand() *cli.Command {
	return &cli.Command{
		Name:      "file",
		Usage:     "Decode one chunk file's header and event bounds",
		ArgsUsage: "<path>",
		Flags:     ReadOnlyFlags(),
		Action:    inspectFileAction,
	}
}

func inspectFileAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("inspect file requires a path argument", exitIO)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	f, err := zfits.Open(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open %s: %v", path, err), exitIO)
	}
	defer iox.DiscardClose(f)

	header := f.Header()
	view := &views.InspectFileView{
		Path:       path,
		ObsID:      header.ObsID,
		SBID:       header.SBID,
		TelID:      header.TelID,
		TelName:    telName(header.TelID),
		DataSource: header.DataSource,
		ChunkID:    header.ChunkID,
		CameraName: header.CameraName,
		NumPixels:  header.NumPixels,
		NumSamples: header.NumSamples,
		ObsStart:   header.ObsStart.String(),
	}

	for {
		event, err := f.NextEvent()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return cli.Exit(fmt.Sprintf("failed to decode %s: %v", path, err), exitIO)
		}
		if view.EventCount == 0 {
			view.FirstEventID = event.EventID
		}
		view.LastEventID = event.EventID
		view.EventCount++
	}

	if c.Bool("tui") {
		return r.RenderTUI("inspect_file", view)
	}
	return r.Render(view)
}

func inspectRunCommand() *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Dry-run assembly over every discovered file of a run",
		Flags:  append(SourceFlags(), ReadOnlyFlags()...),
		Action: inspectRunAction,
	}
}

func inspectRunAction(c *cli.Context) error {
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

	src, _, _, err := buildSource(c, srcCfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open run: %v", err), exitIO)
	}
	defer iox.DiscardClose(src)

	// Dry run: pull everything, export nothing.
	for {
		_, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return cli.Exit(err.Error(), errToExitCode(err))
		}
	}

	meta := src.RunMeta()
	view := &views.InspectRunView{
		ObsID:          meta.ObsID,
		SBID:           meta.SBID,
		TelID:          meta.TelID,
		TelName:        telName(meta.TelID),
		CameraName:     meta.CameraName,
		Convention:     string(srcCfg.Convention),
		DataSources:    meta.DataSources,
		Files:          meta.Files,
		EventCount:     meta.EventCount,
		FirstEventID:   meta.FirstEventID,
		LastEventID:    meta.LastEventID,
		FirstEventTime: meta.FirstEventTime.String(),
		LastEventTime:  meta.LastEventTime.String(),
	}
	for _, w := range src.Warnings() {
		switch w.Kind {
		case types.WarningGap:
			view.GapWarnings++
			view.MissingEvents += w.Missing()
		case types.WarningDuplicate:
			view.DuplicateWarnings++
		}
	}

	if c.Bool("tui") {
		return r.RenderTUI("inspect_run", view)
	}
	return r.Render(view)
}
