// Package table reads and writes the physical shard formats: Parquet files
// and delimited text with a header row.
package table

import (
	"path/filepath"
	"strings"
)

// Format identifies a shard's physical encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatParquet
	FormatCSV
	FormatTSV
)

func (f Format) String() string {
	switch f {
	case FormatParquet:
		return "parquet"
	case FormatCSV:
		return "csv"
	case FormatTSV:
		return "tsv"
	default:
		return "unknown"
	}
}

// Delimited reports whether f is a text format.
func (f Format) Delimited() bool {
	return f == FormatCSV || f == FormatTSV
}

// All lists every readable format.
var All = []Format{FormatParquet, FormatCSV, FormatTSV}

// FormatOf maps a file extension to a format.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return FormatParquet
	case ".csv":
		return FormatCSV
	case ".tsv":
		return FormatTSV
	default:
		return FormatUnknown
	}
}

// ParseFormat parses a format name as printed by String.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "parquet":
		return FormatParquet
	case "csv":
		return FormatCSV
	case "tsv":
		return FormatTSV
	default:
		return FormatUnknown
	}
}
