package paths

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
)

// ErrChunkNotFound is returned by FindChunk when no file matches.
// Chunk iteration treats it as end-of-stream.
var ErrChunkNotFound = errors.New("no file found for chunk")

// DiscoverSources finds the parallel acquisition streams that wrote files
// next to the given first-chunk path. Returns the sorted data source names
// and the parsed info of the given path.
//
// ignoreTimestamp relaxes the match so parallel streams are found even when
// their file timestamps differ by a few seconds.
func DiscoverSources(path string, convention Convention, ignoreTimestamp bool) ([]string, *FileInfo, error) {
	info, err := Parse(path, convention)
	if err != nil {
		return nil, nil, err
	}

	pattern := *info
	pattern.DataSource = "*"
	if ignoreTimestamp {
		pattern.Timestamp = "*"
	}
	glob, err := Format(&pattern, convention)
	if err != nil {
		return nil, nil, err
	}

	dir := filepath.Dir(path)
	matches, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return nil, nil, err
	}
	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("no files matching pattern %s in %s", glob, dir)
	}

	seen := make(map[string]bool)
	var sources []string
	for _, m := range matches {
		mi, err := Parse(m, convention)
		if err != nil {
			continue
		}
		if !seen[mi.DataSource] {
			seen[mi.DataSource] = true
			sources = append(sources, mi.DataSource)
		}
	}
	sort.Strings(sources)

	return sources, info, nil
}

// FindChunk locates the file for one chunk of one data source.
//
// When several files match (the acquisition occasionally produces two files
// for chunk 0, the first holding trailing events of the previous
// observation) the lexicographically last match wins.
func FindChunk(dir string, first *FileInfo, dataSource string, chunk int, convention Convention, ignoreTimestamp bool) (string, error) {
	pattern := *first
	pattern.DataSource = dataSource
	pattern.Chunk = chunk
	if ignoreTimestamp {
		pattern.Timestamp = "*"
	}

	glob, err := Format(&pattern, convention)
	if err != nil {
		return "", err
	}

	matches, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s/%s", ErrChunkNotFound, dir, glob)
	}

	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// DiscoverChunks lists all chunk files of one data source in chunk order,
// starting from the chunk of first.
func DiscoverChunks(dir string, first *FileInfo, dataSource string, convention Convention, ignoreTimestamp bool) ([]string, error) {
	var files []string
	for chunk := first.Chunk; ; chunk++ {
		path, err := FindChunk(dir, first, dataSource, chunk, convention, ignoreTimestamp)
		if err != nil {
			if errors.Is(err, ErrChunkNotFound) {
				break
			}
			return nil, err
		}
		files = append(files, path)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no chunks for data source %s", ErrChunkNotFound, dataSource)
	}
	return files, nil
}
