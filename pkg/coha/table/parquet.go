package table

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/cognicore/coha/pkg/coha/frame"
	"github.com/cognicore/coha/pkg/coha/internalerr"
)

// BatchRows is how many rows are pulled per column read.
const BatchRows = 4096

type parquetFile struct {
	file   source.ParquetFile
	reader *reader.ParquetReader
}

func openParquet(path string) (*parquetFile, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	pr, err := reader.NewParquetColumnReader(fr, 1)
	if err != nil {
		fr.Close()
		return nil, err
	}
	return &parquetFile{file: fr, reader: pr}, nil
}

func (p *parquetFile) Close() error {
	p.reader.ReadStop()
	return p.file.Close()
}

// leafColumns maps top-level primitive column names to their value column
// index. Nested (group) columns are not part of the flat schema.
func (p *parquetFile) leafColumns() ([]string, map[string]int64) {
	sh := p.reader.SchemaHandler
	var names []string
	index := make(map[string]int64)
	for i, inPath := range sh.ValueColumns {
		exPath, ok := sh.InPathToExPath[inPath]
		if !ok {
			exPath = inPath
		}
		parts := strings.Split(exPath, common.PAR_GO_PATH_DELIMITER)
		if len(parts) != 2 {
			continue
		}
		name := parts[1]
		if _, dup := index[name]; dup {
			continue
		}
		names = append(names, name)
		index[name] = int64(i)
	}
	return names, index
}

func parquetSchema(path string) (cols []string, err error) {
	defer func() {
		// the footer decoder panics on some truncated files
		if r := recover(); r != nil {
			cols, err = nil, fmt.Errorf("%s: %w: %v", path, internalerr.ErrUnreadableSchema, r)
		}
	}()

	pf, err := openParquet(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, internalerr.ErrUnreadableSchema, err)
	}
	defer pf.Close()

	names, _ := pf.leafColumns()
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w: no flat columns", path, internalerr.ErrUnreadableSchema)
	}
	return names, nil
}

func parquetOpener(path string, cols []string) frame.OpenFunc {
	return func(ctx context.Context) (frame.Iterator, error) {
		pf, err := openParquet(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		_, index := pf.leafColumns()
		colIdx := make([]int64, len(cols))
		for i, c := range cols {
			idx, ok := index[c]
			if !ok {
				pf.Close()
				return nil, fmt.Errorf("%s: column %q disappeared", path, c)
			}
			colIdx[i] = idx
		}

		remaining := pf.reader.GetNumRows()
		var batch [][]interface{}
		pos, size := 0, 0

		next := func() (frame.Row, error) {
			if pos >= size {
				if remaining <= 0 {
					return nil, io.EOF
				}
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				n := int64(BatchRows)
				if remaining < n {
					n = remaining
				}
				batch, size, err = readBatch(pf.reader, colIdx, n)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", path, err)
				}
				if size == 0 {
					return nil, io.EOF
				}
				remaining -= int64(size)
				pos = 0
			}
			row := make(frame.Row, len(cols))
			for i := range cols {
				row[i] = batch[i][pos]
			}
			pos++
			return row, nil
		}
		return frame.NewFuncIter(next, pf.Close), nil
	}
}

func readBatch(pr *reader.ParquetReader, colIdx []int64, n int64) ([][]interface{}, int, error) {
	batch := make([][]interface{}, len(colIdx))
	size := -1
	for i, idx := range colIdx {
		values, _, _, err := pr.ReadColumnByIndex(idx, n)
		if err != nil {
			return nil, 0, err
		}
		batch[i] = values
		if size < 0 || len(values) < size {
			size = len(values)
		}
	}
	if size < 0 {
		size = 0
	}
	return batch, size, nil
}

// WriteParquet writes rows to path using T's parquet struct tags. The file
// is written next to path and renamed into place once complete.
func WriteParquet[T any](path string, rows []T) error {
	tmp := path + ".tmp"
	fw, err := local.NewLocalFileWriter(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	pw, err := writer.NewParquetWriter(fw, new(T), 1)
	if err != nil {
		fw.Close()
		os.Remove(tmp)
		return fmt.Errorf("parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range rows {
		if err := pw.Write(rows[i]); err != nil {
			fw.Close()
			os.Remove(tmp)
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		os.Remove(tmp)
		return fmt.Errorf("finish %s: %w", path, err)
	}
	if err := fw.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
