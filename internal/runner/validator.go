package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/johndauphine/csvload/internal/logging"
)

// ValidationTimeout is the maximum time to wait for a single table's row count query.
const ValidationTimeout = 30 * time.Second

// ErrValidation is matched when a table did not grow by the number of rows loaded.
var ErrValidation = errors.New("row count validation failed")

// TableCount is the row count of one job's target table.
type TableCount struct {
	Table  string
	Exists bool
	Rows   int64
	Err    error
}

// countIfExists returns the table's row count, or 0 when it does not exist yet.
func (r *Runner) countIfExists(ctx context.Context, table string) (int64, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, ValidationTimeout)
	defer cancel()

	exists, err := r.writer.TableExists(timeoutCtx, r.config.Target.Schema, table)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	return r.writer.GetRowCount(timeoutCtx, r.config.Target.Schema, table)
}

// validateJob checks that table grew by exactly loaded rows. Concurrent
// writers to the same table make this check fail.
func (r *Runner) validateJob(ctx context.Context, table string, before, loaded int64) error {
	after, err := r.countIfExists(ctx, table)
	if err != nil {
		return fmt.Errorf("target count: %w", err)
	}

	if diff := after - before; diff != loaded {
		logging.Error("%-30s FAIL loaded=%d target grew by %d (before=%d after=%d)", table, loaded, diff, before, after)
		return fmt.Errorf("%w: %s grew by %d rows, loaded %d", ErrValidation, table, diff, loaded)
	}
	logging.Info("%-30s OK %d rows (table now %d)", table, loaded, after)
	return nil
}

// Count returns the current row count of every configured job table.
// Tables listed by several jobs are counted once.
func (r *Runner) Count(ctx context.Context) []TableCount {
	seen := make(map[string]bool)
	var counts []TableCount
	for _, job := range r.config.Jobs {
		if seen[job.Table] {
			continue
		}
		seen[job.Table] = true

		c := TableCount{Table: job.Table}
		timeoutCtx, cancel := context.WithTimeout(ctx, ValidationTimeout)
		c.Exists, c.Err = r.writer.TableExists(timeoutCtx, r.config.Target.Schema, job.Table)
		if c.Err == nil && c.Exists {
			c.Rows, c.Err = r.writer.GetRowCount(timeoutCtx, r.config.Target.Schema, job.Table)
		}
		cancel()
		counts = append(counts, c)
	}
	return counts
}
