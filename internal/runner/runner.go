// Package runner runs the configured CSV load jobs against one target
// database connection.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/johndauphine/csvload/internal/config"
	"github.com/johndauphine/csvload/internal/driver"
	"github.com/johndauphine/csvload/internal/loader"
	"github.com/johndauphine/csvload/internal/logging"
)

// ErrNoJobs is returned by Run when the configuration lists no jobs.
var ErrNoJobs = errors.New("no jobs configured")

// Runner owns the target writer and loads jobs through it one at a time.
type Runner struct {
	config   *config.Config
	writer   driver.Writer
	reporter loader.Reporter
}

// JobResult is the outcome of one job.
type JobResult struct {
	Job      config.JobConfig
	Result   *loader.Result
	Err      error
	Duration time.Duration
}

// Summary is the outcome of a Run.
type Summary struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Jobs      []JobResult
}

// Rows returns the number of rows loaded by all jobs.
func (s *Summary) Rows() int64 {
	var n int64
	for _, j := range s.Jobs {
		if j.Result != nil {
			n += j.Result.Rows
		}
	}
	return n
}

// Failed returns the number of failed jobs.
func (s *Summary) Failed() int {
	n := 0
	for _, j := range s.Jobs {
		if j.Err != nil {
			n++
		}
	}
	return n
}

// New opens a writer for the configured target.
func New(cfg *config.Config) (*Runner, error) {
	d, err := driver.Get(cfg.Target.Type)
	if err != nil {
		return nil, err
	}

	logging.Debug("Connecting to %s target %+v", d.Name(), cfg.Target.Redacted())
	w, err := d.NewWriter(&cfg.Target, cfg.WriterOptions())
	if err != nil {
		return nil, fmt.Errorf("connecting to target: %w", err)
	}
	return NewWithWriter(cfg, w), nil
}

// NewWithWriter creates a runner on an already opened writer. The runner
// takes ownership of w and closes it in Close.
func NewWithWriter(cfg *config.Config, w driver.Writer) *Runner {
	return &Runner{config: cfg, writer: w}
}

// SetReporter replaces the default stderr progress bar.
func (r *Runner) SetReporter(rep loader.Reporter) {
	r.reporter = rep
}

// Close closes the target writer.
func (r *Runner) Close() {
	if r.writer != nil {
		r.writer.Close()
	}
}

// Run loads every configured job in order. It stops at the first failure
// unless load.continue_on_error is set, in which case all jobs run and the
// failures are joined into the returned error.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	if len(r.config.Jobs) == 0 {
		return nil, ErrNoJobs
	}

	summary := &Summary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
	logging.Info("Starting run %s: %d jobs into %s", summary.RunID, len(r.config.Jobs), r.writer.DBType())

	var errs []error
	for i, job := range r.config.Jobs {
		start := time.Now()
		res, err := r.LoadJob(ctx, job)
		summary.Jobs = append(summary.Jobs, JobResult{
			Job:      job,
			Result:   res,
			Err:      err,
			Duration: time.Since(start),
		})
		if err == nil {
			continue
		}

		err = fmt.Errorf("job %d (%s -> %s): %w", i+1, job.File, job.Table, err)
		logging.Error("%v", err)
		errs = append(errs, err)
		if !r.config.Load.ContinueOnError {
			break
		}
	}

	summary.Duration = time.Since(summary.StartedAt)
	logging.Info("Run %s finished: %d rows, %d of %d jobs failed in %s",
		summary.RunID, summary.Rows(), summary.Failed(), len(r.config.Jobs), summary.Duration.Round(time.Millisecond))
	return summary, errors.Join(errs...)
}

// LoadJob loads one file into one table.
func (r *Runner) LoadJob(ctx context.Context, job config.JobConfig) (*loader.Result, error) {
	var batchSize int
	switch {
	case job.BatchSize != nil:
		batchSize = *job.BatchSize
	case r.config.Load.BatchSize != nil:
		batchSize = *r.config.Load.BatchSize
	}

	l, err := loader.New(loader.Options{
		BatchSize:   batchSize,
		Schema:      r.config.Target.Schema,
		CreateTable: r.config.Load.CreateTables,
		Read:        r.config.ReadOptions(),
		Reporter:    r.reporter,
	})
	if err != nil {
		return nil, err
	}

	warnIfLarge(job.File)

	var before int64
	if r.config.Load.Validate {
		if before, err = r.countIfExists(ctx, job.Table); err != nil {
			return nil, err
		}
	}

	res, err := l.Load(ctx, job.File, job.Table, r.writer)
	if err != nil {
		return res, err
	}

	if r.config.Load.Validate {
		if err := r.validateJob(ctx, job.Table, before, res.Rows); err != nil {
			return res, err
		}
	}
	return res, nil
}

// warnIfLarge logs when a source file is larger than available memory,
// since the whole file is held in memory during the load.
func warnIfLarge(path string) {
	fi, err := os.Stat(path)
	if err != nil {
		return
	}
	availMB := config.AvailableMemoryMB()
	if sizeMB := fi.Size() / (1024 * 1024); sizeMB > availMB {
		logging.Warn("%s is %d MB but only %d MB of memory is available; the load may fail", path, sizeMB, availMB)
	}
}
