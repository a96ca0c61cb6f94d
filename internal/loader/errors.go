package loader

import (
	"errors"
	"fmt"

	"github.com/johndauphine/csvload/internal/dataset"
)

var (
	// ErrFileAccess is matched when the source file cannot be opened or read.
	ErrFileAccess = dataset.ErrFileAccess

	// ErrParse is matched when the source file is not valid tabular data.
	ErrParse = dataset.ErrParse

	// ErrConfiguration is matched when load options or arguments are invalid.
	ErrConfiguration = errors.New("invalid load configuration")

	// ErrInsert is matched when the target rejects a batch.
	ErrInsert = errors.New("batch insert failed")
)

// InsertError reports the batch the target rejected. Batches before Batch
// were committed and remain in the table.
type InsertError struct {
	Table string
	Batch int // 0-based batch index
	Start int // dataset row index of the batch's first row
	Rows  int
	Err   error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("inserting batch %d (rows %d-%d) into %s: %v",
		e.Batch+1, e.Start+1, e.Start+e.Rows, e.Table, e.Err)
}

func (e *InsertError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrInsert) match any InsertError.
func (e *InsertError) Is(target error) bool { return target == ErrInsert }

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
