package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/cta-observatory/zfits-runsource/instrument"
	"github.com/cta-observatory/zfits-runsource/paths"
	"github.com/cta-observatory/zfits-runsource/timecode"
	"github.com/cta-observatory/zfits-runsource/types"
	"github.com/cta-observatory/zfits-runsource/zfits"
)

// ConvertCommand returns the convert command.
// Convert writes synthetic runs in the reference container format, for
// fixtures, demos, and downstream integration testing.
func ConvertCommand() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "Write a synthetic run in the reference container format",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Usage:    "Output directory",
				Required: true,
			},
			&cli.Uint64Flag{
				Name:  "obs-id",
				Usage: "Observation identifier",
				Value: 1,
			},
			&cli.Uint64Flag{
				Name:  "sb-id",
				Usage: "Scheduling block identifier",
				Value: 1,
			},
			&cli.UintFlag{
				Name:  "tel-id",
				Usage: "Telescope identifier",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  "camera",
				Usage: "Camera name (default: resolved from --tel-id, else LSTCam)",
			},
			&cli.StringFlag{
				Name:  "convention",
				Usage: "Filename convention: acada_rel1 or acada_dpps_icd",
				Value: string(paths.ConventionDPPSICD),
			},
			&cli.IntFlag{
				Name:  "data-sources",
				Usage: "Number of parallel data sources",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "chunks",
				Usage: "Chunk files per data source",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "events",
				Usage: "Events per chunk file",
				Value: 100,
			},
			&cli.UintFlag{
				Name:  "pixels",
				Usage: "Camera pixel count",
				Value: 16,
			},
			&cli.UintFlag{
				Name:  "samples",
				Usage: "Waveform samples per pixel",
				Value: 8,
			},
			&cli.Uint64Flag{
				Name:  "start-event-id",
				Usage: "First event identifier",
				Value: 1,
			},
		},
		Action: convertAction,
	}
}

func convertAction(c *cli.Context) error {
	convention := paths.Convention(c.String("convention"))
	switch convention {
	case paths.ConventionRel1, paths.ConventionDPPSICD:
	default:
		return cli.Exit(fmt.Sprintf("unknown convention: %s", convention), exitIO)
	}

	outDir := c.String("out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return cli.Exit(fmt.Sprintf("failed to create output dir: %v", err), exitIO)
	}

	telID := uint16(c.Uint("tel-id"))
	camera := c.String("camera")
	if camera == "" {
		camera = "LSTCam"
		if name, err := instrument.CameraForTel(int(telID)); err == nil {
			camera = name
		}
	}

	gen := runGenerator{
		obsID:      c.Uint64("obs-id"),
		sbID:       c.Uint64("sb-id"),
		telID:      telID,
		camera:     camera,
		convention: convention,
		sources:    c.Int("data-sources"),
		chunks:     c.Int("chunks"),
		events:     c.Int("events"),
		pixels:     uint32(c.Uint("pixels")),
		samples:    uint16(c.Uint("samples")),
		startID:    c.Uint64("start-event-id"),
		obsStart:   time.Now().UTC().Truncate(time.Second),
		outDir:     outDir,
	}
	if gen.sources < 1 || gen.chunks < 1 || gen.events < 1 {
		return cli.Exit("data-sources, chunks, and events must all be >= 1", exitIO)
	}

	files, total, err := gen.write()
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to write run: %v", err), exitIO)
	}

	fmt.Printf("wrote %d event(s) across %d file(s) to %s\n", total, len(files), outDir)
	for _, f := range files {
		fmt.Printf("  %s\n", filepath.Base(f))
	}
	return nil
}

// runGenerator produces one synthetic run. Event ids are globally unique
// and strided round-robin across data sources so that a multi-source run
// merges back into a contiguous sequence.
type runGenerator struct {
	obsID      uint64
	sbID       uint64
	telID      uint16
	camera     string
	convention paths.Convention
	sources    int
	chunks     int
	events     int
	pixels     uint32
	samples    uint16
	startID    uint64
	obsStart   time.Time
	outDir     string
}

func (g runGenerator) write() ([]string, int, error) {
	timestamp := g.obsStart.Format("20060102T150405")
	obsStart := timecode.FromTime(g.obsStart)

	var files []string
	total := 0

	for s := 0; s < g.sources; s++ {
		dataSource := g.sourceName(s)
		for chunk := 0; chunk < g.chunks; chunk++ {
			name, err := g.fileName(dataSource, timestamp, chunk)
			if err != nil {
				return nil, 0, err
			}
			path := filepath.Join(g.outDir, name)

			header := &types.FileHeader{
				ObsID:      g.obsID,
				SBID:       g.sbID,
				TelID:      g.telID,
				DataSource: dataSource,
				ChunkID:    chunk,
				CameraName: g.camera,
				NumPixels:  g.pixels,
				NumSamples: g.samples,
				ObsStart:   obsStart,
			}
			n, err := g.writeChunk(path, header, s, chunk)
			if err != nil {
				return nil, 0, err
			}
			files = append(files, path)
			total += n
		}
	}
	return files, total, nil
}

func (g runGenerator) writeChunk(path string, header *types.FileHeader, sourceIdx, chunk int) (int, error) {
	w, err := zfits.Create(path, header)
	if err != nil {
		return 0, err
	}

	waveform := make([]byte, int(g.pixels)*int(g.samples)*2)
	for i := range waveform {
		waveform[i] = byte(i)
	}
	status := make([]byte, g.pixels)

	for i := 0; i < g.events; i++ {
		// The k-th event of this source overall, strided across sources.
		k := chunk*g.events + i
		id := g.startID + uint64(k*g.sources+sourceIdx)
		offset := time.Duration(id-g.startID) * time.Millisecond

		event := &types.EventRecord{
			EventID:     id,
			TelID:       g.telID,
			EventType:   types.TriggerShower,
			TriggerTime: timecode.FromTime(g.obsStart.Add(offset)),
			NumChannels: 1,
			NumPixels:   g.pixels,
			NumSamples:  g.samples,
			Waveform:    waveform,
			PixelStatus: status,
		}
		if err := w.WriteEvent(event); err != nil {
			_ = w.Close()
			return 0, err
		}
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return g.events, nil
}

func (g runGenerator) sourceName(idx int) string {
	if g.convention == paths.ConventionRel1 {
		return fmt.Sprintf("SDH_%04d", 3001+idx)
	}
	return fmt.Sprintf("SDH%04d", 1+idx)
}

func (g runGenerator) fileName(dataSource, timestamp string, chunk int) (string, error) {
	sbID := g.sbID
	obsID := g.obsID
	info := &paths.FileInfo{
		TelID:      int(g.telID),
		DataSource: dataSource,
		Timestamp:  timestamp,
		SBID:       &sbID,
		ObsID:      &obsID,
		Chunk:      chunk,
		SBIDPad:    11,
		ObsIDPad:   11,
		ChunkPad:   3,
	}
	if g.convention == paths.ConventionRel1 {
		info.SBIDPad = 10
		info.ObsIDPad = 10
		info.ChunkPad = 1
	} else {
		info.DataType = "TEL_SHOWER"
	}
	return paths.Format(info, g.convention)
}
