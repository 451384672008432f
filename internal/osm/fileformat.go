package osm

import (
	"path/filepath"
	"strings"
)

type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatXML
	FormatPBF
	FormatOPL
	FormatJSON
)

func (f FileFormat) String() string {
	switch f {
	case FormatXML:
		return "XML"
	case FormatPBF:
		return "PBF"
	case FormatOPL:
		return "OPL"
	case FormatJSON:
		return "JSON"
	}
	return "unknown"
}

// FormatFromPath guesses the format from the file name, ignoring a trailing
// compression suffix.
func FormatFromPath(path string) FileFormat {
	name := strings.ToLower(filepath.Base(path))
	for _, suffix := range []string{".gz", ".bz2"} {
		name = strings.TrimSuffix(name, suffix)
	}
	switch filepath.Ext(name) {
	case ".osm", ".osc", ".xml":
		return FormatXML
	case ".pbf":
		return FormatPBF
	case ".opl":
		return FormatOPL
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON
	}
	return FormatUnknown
}
