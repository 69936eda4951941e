// Package paths parses and formats acquisition file names.
//
// The acquisition system splits each observation into chunk files named
// after one of two conventions:
//
//	acada_rel1:     Tel001_SDH_3001_20231003T204445_sbid2000000008_obid2000000016_9.fits.fz
//	acada_dpps_icd: TEL001_SDH0001_20231013T220427_SBID00000000020_OBSID00000000027_TEL_SHOWER_CHUNK000.fits.fz
//
// Parsing preserves zero-padding widths so that formatting round-trips and
// glob patterns for sibling files can be derived from a parsed name.
package paths

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Convention names the filename grammar in use.
type Convention string

const (
	// ConventionRel1 is the pre-ICD naming used by early releases.
	ConventionRel1 Convention = "acada_rel1"
	// ConventionDPPSICD is the ACADA-DPPS ICD naming (default).
	ConventionDPPSICD Convention = "acada_dpps_icd"
)

// FileInfo holds the components of a chunk file name.
type FileInfo struct {
	TelID      int
	DataSource string
	Timestamp  string
	SBID       *uint64
	ObsID      *uint64
	DataType   string
	Chunk      int

	// Zero-padding widths, preserved for round-trip formatting.
	SBIDPad  int
	ObsIDPad int
	ChunkPad int

	// ExtraSuffix is anything between the chunk number and the extension.
	ExtraSuffix string
}

var (
	rel1Re = regexp.MustCompile(
		`^Tel(?P<tel_id>\d+)_(?P<data_source>SDH_\d+)_(?P<timestamp>\d{8}T\d{6})` +
			`_sbid(?P<sb_id>\d+)_obid(?P<obs_id>\d+)_(?P<chunk>\d+)(?P<extra_suffix>.*)\.fits\.fz$`)

	dppsICDRe = regexp.MustCompile(
		`^TEL(?P<tel_id>\d+)_(?P<data_source>SDH\d+)_(?P<timestamp>\d{8}T\d{6})` +
			`(?:_SBID(?P<sb_id>\d+))?(?:_OBSID(?P<obs_id>\d+))?` +
			`(?:_(?P<data_type>[a-zA-Z0-9_]+?))?_CHUNK(?P<chunk>\d+)(?P<extra_suffix>.*)\.fits\.fz$`)
)

func conventionRe(c Convention) (*regexp.Regexp, error) {
	switch c {
	case ConventionRel1:
		return rel1Re, nil
	case ConventionDPPSICD:
		return dppsICDRe, nil
	default:
		return nil, fmt.Errorf("unknown filename convention: %q", c)
	}
}

// Parse extracts the FileInfo from the base name of path.
func Parse(path string, convention Convention) (*FileInfo, error) {
	re, err := conventionRe(convention)
	if err != nil {
		return nil, err
	}

	name := baseName(path)
	m := re.FindStringSubmatch(name)
	if m == nil {
		return nil, fmt.Errorf("filename %q did not match convention %s", name, convention)
	}

	groups := make(map[string]string, len(m))
	for i, gname := range re.SubexpNames() {
		if gname != "" {
			groups[gname] = m[i]
		}
	}

	telID, err := strconv.Atoi(groups["tel_id"])
	if err != nil {
		return nil, fmt.Errorf("filename %q: invalid tel_id: %w", name, err)
	}
	chunk, err := strconv.Atoi(groups["chunk"])
	if err != nil {
		return nil, fmt.Errorf("filename %q: invalid chunk: %w", name, err)
	}

	info := &FileInfo{
		TelID:       telID,
		DataSource:  groups["data_source"],
		Timestamp:   groups["timestamp"],
		DataType:    groups["data_type"],
		Chunk:       chunk,
		ChunkPad:    len(groups["chunk"]),
		ExtraSuffix: groups["extra_suffix"],
	}

	if s := groups["sb_id"]; s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("filename %q: invalid sb_id: %w", name, err)
		}
		info.SBID = &v
		info.SBIDPad = len(s)
	}
	if s := groups["obs_id"]; s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("filename %q: invalid obs_id: %w", name, err)
		}
		info.ObsID = &v
		info.ObsIDPad = len(s)
	}

	return info, nil
}

// Format produces the file name for info under the given convention.
// Wildcard fields (DataSource or Timestamp set to "*") are emitted as-is,
// which makes the result usable as a glob pattern.
func Format(info *FileInfo, convention Convention) (string, error) {
	switch convention {
	case ConventionRel1:
		return formatRel1(info), nil
	case ConventionDPPSICD:
		return formatDPPSICD(info), nil
	default:
		return "", fmt.Errorf("unknown filename convention: %q", convention)
	}
}

func formatRel1(info *FileInfo) string {
	var sbID, obsID uint64
	if info.SBID != nil {
		sbID = *info.SBID
	}
	if info.ObsID != nil {
		obsID = *info.ObsID
	}
	return fmt.Sprintf("Tel%03d_%s_%s_sbid%0*d_obid%0*d_%0*d%s.fits.fz",
		info.TelID, info.DataSource, info.Timestamp,
		info.SBIDPad, sbID, info.ObsIDPad, obsID,
		info.ChunkPad, info.Chunk, info.ExtraSuffix)
}

func formatDPPSICD(info *FileInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "TEL%03d_%s_%s", info.TelID, info.DataSource, info.Timestamp)
	if info.SBID != nil {
		fmt.Fprintf(&b, "_SBID%0*d", info.SBIDPad, *info.SBID)
	}
	if info.ObsID != nil {
		fmt.Fprintf(&b, "_OBSID%0*d", info.ObsIDPad, *info.ObsID)
	}
	if info.DataType != "" {
		fmt.Fprintf(&b, "_%s", info.DataType)
	}
	fmt.Fprintf(&b, "_CHUNK%0*d%s.fits.fz", info.ChunkPad, info.Chunk, info.ExtraSuffix)
	return b.String()
}

// baseName returns the final path element without using path/filepath,
// accepting both separators so patterns stay portable in tests.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
