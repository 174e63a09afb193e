package table

import (
	"fmt"

	"github.com/cognicore/coha/pkg/coha/frame"
	"github.com/cognicore/coha/pkg/coha/internalerr"
)

// ReadSchema returns the column names of a shard without reading its rows.
func ReadSchema(path string) ([]string, error) {
	switch f := FormatOf(path); f {
	case FormatParquet:
		return parquetSchema(path)
	case FormatCSV, FormatTSV:
		return delimitedSchema(path, delimiter(f))
	default:
		return nil, fmt.Errorf("%s: %w", path, internalerr.ErrUnsupportedFormat)
	}
}

// Scan returns a lazy dataset over a shard. The schema is read eagerly so
// the plan knows its columns; rows are read only when the dataset is
// iterated.
func Scan(path string) (*frame.Dataset, error) {
	cols, err := ReadSchema(path)
	if err != nil {
		return nil, err
	}
	switch f := FormatOf(path); f {
	case FormatParquet:
		return frame.New(cols, parquetOpener(path, cols)), nil
	default:
		return frame.New(cols, delimitedOpener(path, delimiter(f), len(cols))), nil
	}
}

func delimiter(f Format) rune {
	if f == FormatTSV {
		return '\t'
	}
	return ','
}
