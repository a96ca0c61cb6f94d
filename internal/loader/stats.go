package loader

import (
	"fmt"
	"time"
)

// Result summarizes a completed load.
type Result struct {
	// Table is the target table name.
	Table string

	// Rows is the number of rows inserted.
	Rows int64

	// Batches is the number of batches inserted.
	Batches int

	// ParseTime is time spent reading and parsing the source file.
	ParseTime time.Duration

	// WriteTime is time spent in batch inserts.
	WriteTime time.Duration
}

// String returns a formatted summary of the result.
func (r *Result) String() string {
	total := r.TotalTime()
	if total == 0 {
		return fmt.Sprintf("rows=%d, batches=%d", r.Rows, r.Batches)
	}
	return fmt.Sprintf("parse=%.1fs (%.0f%%), write=%.1fs (%.0f%%), rows=%d, batches=%d",
		r.ParseTime.Seconds(), float64(r.ParseTime)/float64(total)*100,
		r.WriteTime.Seconds(), float64(r.WriteTime)/float64(total)*100,
		r.Rows, r.Batches)
}

// TotalTime returns the sum of all timing components.
func (r *Result) TotalTime() time.Duration {
	return r.ParseTime + r.WriteTime
}

// RowsPerSecond calculates the throughput.
func (r *Result) RowsPerSecond() float64 {
	total := r.TotalTime()
	if total == 0 {
		return 0
	}
	return float64(r.Rows) / total.Seconds()
}
