// Package dataset reads a delimited flat file into memory and hands it out
// in fixed-size batches.
//
// The whole file is materialized before any batch is produced. This keeps the
// total row and batch counts known up front at the cost of holding every row
// in memory, so files larger than available memory are not supported.
package dataset

import (
	"errors"
	"fmt"
	"iter"
)

var (
	// ErrFileAccess is matched by errors raised when the source file cannot be opened or read.
	ErrFileAccess = errors.New("source file not accessible")

	// ErrParse is matched by errors raised when the source file is not valid tabular data.
	ErrParse = errors.New("source file is malformed")
)

// ParseError describes malformed input. Line is 1-based and 0 when unknown.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("parsing %s line %d: %v", e.Path, e.Line, e.Err)
	case e.Path != "":
		return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("parsing line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parsing: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrParse) match any ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Column is a named column with its inferred kind.
type Column struct {
	Name string
	Kind Kind
}

// Dataset is an immutable in-memory table.
// Each row has one cell per column; cells are int64, float64, bool, string or nil.
type Dataset struct {
	Columns []Column
	Rows    [][]any
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// ColumnNames returns the column names in file order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Batch is a contiguous run of rows. Index is 0-based; Start is the offset
// of the first row in the dataset.
type Batch struct {
	Index int
	Start int
	Rows  [][]any
}

// NumBatches returns ceil(Len/size). It is informational only; iteration
// through Batches terminates on its own.
func (d *Dataset) NumBatches(size int) int {
	if size <= 0 {
		return 0
	}
	return (len(d.Rows) + size - 1) / size
}

// Batches yields disjoint row ranges [i, i+size) in order. Every batch except
// possibly the last holds exactly size rows. An empty dataset yields nothing.
// The sequence shares backing storage with the dataset; callers must not
// modify the rows.
func (d *Dataset) Batches(size int) iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		if size <= 0 {
			return
		}
		for i, n := 0, 0; i < len(d.Rows); i, n = i+size, n+1 {
			end := min(i+size, len(d.Rows))
			if !yield(Batch{Index: n, Start: i, Rows: d.Rows[i:end:end]}) {
				return
			}
		}
	}
}
