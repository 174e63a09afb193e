package table

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cognicore/coha/pkg/coha/frame"
	"github.com/cognicore/coha/pkg/coha/internalerr"
)

const utf8BOM = "\ufeff"

func newCSVReader(r io.Reader, comma rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

func delimitedSchema(path string, comma rune) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, internalerr.ErrUnreadableSchema, err)
	}
	defer f.Close()

	header, err := newCSVReader(f, comma).Read()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: header: %v", path, internalerr.ErrUnreadableSchema, err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		cols[i] = strings.TrimSpace(h)
	}
	return cols, nil
}

// delimitedOpener yields every value as a string; empty cells are absent.
func delimitedOpener(path string, comma rune, width int) frame.OpenFunc {
	return func(ctx context.Context) (frame.Iterator, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		cr := newCSVReader(f, comma)
		if _, err := cr.Read(); err != nil {
			f.Close()
			return nil, fmt.Errorf("%s: header: %w", path, err)
		}

		next := func() (frame.Row, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rec, err := cr.Read()
			if err != nil {
				if err == io.EOF {
					return nil, io.EOF
				}
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			row := make(frame.Row, width)
			for i := 0; i < width && i < len(rec); i++ {
				if rec[i] != "" {
					row[i] = rec[i]
				}
			}
			return row, nil
		}
		return frame.NewFuncIter(next, f.Close), nil
	}
}

// WriteDelimited writes a header and rows as CSV (or TSV when the path says so).
func WriteDelimited(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	w.Comma = delimiter(FormatOf(path))
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
