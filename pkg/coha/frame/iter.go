package frame

import (
	"context"
	"io"
)

// Row is one record; positions follow the owning dataset's columns.
type Row []any

// Iterator streams rows out of an opened dataset.
type Iterator interface {
	Next() bool
	Row() Row
	Err() error
	Close() error
}

// OpenFunc starts evaluation of a dataset.
type OpenFunc func(ctx context.Context) (Iterator, error)

type sliceIter struct {
	ctx  context.Context
	rows []Row
	pos  int
	cur  Row
	err  error
}

func newSliceIter(ctx context.Context, rows []Row) *sliceIter {
	return &sliceIter{ctx: ctx, rows: rows}
}

func (it *sliceIter) Next() bool {
	if it.err != nil || it.pos >= len(it.rows) {
		return false
	}
	if err := it.ctx.Err(); err != nil {
		it.err = err
		return false
	}
	it.cur = it.rows[it.pos]
	it.pos++
	return true
}

func (it *sliceIter) Row() Row     { return it.cur }
func (it *sliceIter) Err() error   { return it.err }
func (it *sliceIter) Close() error { return nil }

// FuncIter adapts a pull function to Iterator. next returns io.EOF when the
// stream is exhausted.
type FuncIter struct {
	next  func() (Row, error)
	close func() error
	cur   Row
	err   error
	done  bool
}

// NewFuncIter builds an iterator from next and an optional close hook.
func NewFuncIter(next func() (Row, error), close func() error) *FuncIter {
	return &FuncIter{next: next, close: close}
}

func (it *FuncIter) Next() bool {
	if it.done {
		return false
	}
	row, err := it.next()
	if err != nil {
		it.done = true
		if err != io.EOF {
			it.err = err
		}
		return false
	}
	it.cur = row
	return true
}

func (it *FuncIter) Row() Row   { return it.cur }
func (it *FuncIter) Err() error { return it.err }

func (it *FuncIter) Close() error {
	it.done = true
	if it.close == nil {
		return nil
	}
	c := it.close
	it.close = nil
	return c()
}
