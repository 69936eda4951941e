package source

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cta-observatory/zfits-runsource/assemble"
	"github.com/cta-observatory/zfits-runsource/paths"
)

// Name is the registry name of the zfits-backed event source.
const Name = "zfits"

func init() {
	Register(Name, NewZFits)
}

// NewZFits constructs an event source over zfits chunk files.
//
// With an explicit Paths list the files are assembled as given. With a
// single Path, sibling chunks (AllChunks) and parallel data sources
// (AllSourceIDs) are discovered from the filename; multiple sources yield
// a merging source, a single source a plain assembler.
func NewZFits(cfg Config) (EventSource, error) {
	opts := assemble.Options{
		GapTolerance: cfg.GapTolerance,
		Logger:       cfg.Logger,
		Collector:    cfg.Collector,
	}

	if len(cfg.Paths) > 0 {
		return assemble.New(cfg.Paths, opts)
	}
	if cfg.Path == "" {
		return nil, errors.New("source: either Path or Paths is required")
	}

	convention := cfg.convention()
	dir := filepath.Dir(cfg.Path)

	var sources []string
	var first *paths.FileInfo
	var err error
	if cfg.AllSourceIDs {
		sources, first, err = paths.DiscoverSources(cfg.Path, convention, cfg.IgnoreTimestamp)
	} else {
		first, err = paths.Parse(cfg.Path, convention)
		if err == nil {
			sources = []string{first.DataSource}
		}
	}
	if err != nil {
		return nil, err
	}

	filesBySource := make(map[string][]string, len(sources))
	for _, ds := range sources {
		var files []string
		if cfg.AllChunks {
			files, err = paths.DiscoverChunks(dir, first, ds, convention, cfg.IgnoreTimestamp)
		} else {
			var path string
			path, err = paths.FindChunk(dir, first, ds, first.Chunk, convention, cfg.IgnoreTimestamp)
			files = []string{path}
		}
		if err != nil {
			return nil, fmt.Errorf("data source %s: %w", ds, err)
		}
		filesBySource[ds] = files
	}

	if len(filesBySource) == 1 {
		return assemble.New(filesBySource[sources[0]], opts)
	}
	return assemble.NewMerger(filesBySource, opts)
}
