// Package loader appends the rows of a CSV file to a database table in
// fixed-size batches.
//
// A load is a single synchronous pass: the file is parsed into memory, cut
// into contiguous batches and each batch is inserted and committed before
// the next one starts. A failing batch aborts the load. Batches committed
// before it stay in the table; there is no rollback across batches and no
// retry.
package loader

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/johndauphine/csvload/internal/dataset"
	"github.com/johndauphine/csvload/internal/driver"
	"github.com/johndauphine/csvload/internal/logging"
	"github.com/johndauphine/csvload/internal/progress"
	"github.com/johndauphine/csvload/internal/typemap"
)

// DefaultBatchSize is used when Options.BatchSize is zero.
const DefaultBatchSize = 1000

// Writer appends a batch of rows to a table. The loader never opens or
// closes it.
type Writer interface {
	WriteBatch(ctx context.Context, opts driver.WriteBatchOptions) error
}

// TableCreator is implemented by writers that can create a missing table.
type TableCreator interface {
	TableExists(ctx context.Context, schema, table string) (bool, error)
	CreateTable(ctx context.Context, schema, table string, cols []driver.ColumnDef) error
	DBType() string
}

// Reporter observes load progress: Start with the batch count, Add once per
// committed batch and Finish after the last one.
type Reporter interface {
	Start(table string, batches int)
	Add(batches int)
	Finish(table string)
}

// Options configures a Loader.
type Options struct {
	// BatchSize is the number of rows per insert batch. Zero means DefaultBatchSize.
	BatchSize int

	// Schema qualifies the target table. Empty means the connection default.
	Schema string

	// CreateTable creates the target table from the inferred column kinds
	// when it does not exist. Requires a Writer that implements TableCreator.
	CreateTable bool

	// Read controls CSV parsing.
	Read dataset.ReadOptions

	// Reporter receives progress. Nil means a progress bar on stderr.
	Reporter Reporter
}

// Loader loads CSV files into tables.
type Loader struct {
	opts Options
}

// New validates opts and returns a Loader.
func New(opts Options) (*Loader, error) {
	if opts.BatchSize < 0 {
		return nil, configError("batch size must be positive, got %d", opts.BatchSize)
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.New(os.Stderr)
	}
	return &Loader{opts: opts}, nil
}

// BatchSize returns the effective batch size.
func (l *Loader) BatchSize() int {
	return l.opts.BatchSize
}

// Load appends every row of the CSV file at sourcePath to tableName through
// w, BatchSize rows per WriteBatch call, in file order.
//
// Errors match ErrConfiguration, ErrFileAccess or ErrParse when nothing was
// inserted, and ErrInsert (as *InsertError) when a batch was rejected.
// The context is handed to the writer; cancelling it fails the next batch.
func (l *Loader) Load(ctx context.Context, sourcePath, tableName string, w Writer) (*Result, error) {
	if strings.TrimSpace(tableName) == "" {
		return nil, configError("table name is empty")
	}
	if w == nil {
		return nil, configError("no writer for table %s", tableName)
	}

	result := &Result{Table: tableName}

	parseStart := time.Now()
	ds, err := dataset.Read(sourcePath, l.opts.Read)
	if err != nil {
		return nil, err
	}
	result.ParseTime = time.Since(parseStart)

	logging.Debug("Parsed %s: %d rows, %d columns in %s",
		sourcePath, ds.Len(), len(ds.Columns), result.ParseTime.Round(time.Millisecond))

	if l.opts.CreateTable {
		if err := l.ensureTable(ctx, tableName, ds, w); err != nil {
			return nil, err
		}
	}

	columns := ds.ColumnNames()
	reporter := l.opts.Reporter
	reporter.Start(tableName, ds.NumBatches(l.opts.BatchSize))

	writeStart := time.Now()
	for batch := range ds.Batches(l.opts.BatchSize) {
		err := w.WriteBatch(ctx, driver.WriteBatchOptions{
			Schema:  l.opts.Schema,
			Table:   tableName,
			Columns: columns,
			Rows:    batch.Rows,
		})
		if err != nil {
			result.WriteTime = time.Since(writeStart)
			return result, &InsertError{
				Table: tableName,
				Batch: batch.Index,
				Start: batch.Start,
				Rows:  len(batch.Rows),
				Err:   err,
			}
		}
		result.Rows += int64(len(batch.Rows))
		result.Batches++
		reporter.Add(1)
	}
	result.WriteTime = time.Since(writeStart)

	reporter.Finish(tableName)
	logging.Info("Loaded %s into %s: %s", sourcePath, tableName, result)
	return result, nil
}

func (l *Loader) ensureTable(ctx context.Context, table string, ds *dataset.Dataset, w Writer) error {
	tc, ok := w.(TableCreator)
	if !ok {
		return configError("create table requested but %T cannot create tables", w)
	}

	exists, err := tc.TableExists(ctx, l.opts.Schema, table)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	cols := typemap.ColumnDefs(tc.DBType(), ds.Columns)
	logging.Info("Creating table %s with %d columns", table, len(cols))
	return tc.CreateTable(ctx, l.opts.Schema, table, cols)
}
