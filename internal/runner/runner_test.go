package runner

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndauphine/csvload/internal/config"
	"github.com/johndauphine/csvload/internal/driver"
	"github.com/johndauphine/csvload/internal/driver/sqlite"
	"github.com/johndauphine/csvload/internal/loader"
)

type silentReporter struct{ finished []string }

func (s *silentReporter) Start(string, int)   {}
func (s *silentReporter) Add(int)             {}
func (s *silentReporter) Finish(table string) { s.finished = append(s.finished, table) }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func intPtr(n int) *int { return &n }

func testConfig(jobs ...config.JobConfig) *config.Config {
	return &config.Config{
		Target: config.TargetConfig{Type: "sqlite", Database: ":memory:"},
		Load: config.LoadConfig{
			BatchSize:    intPtr(2),
			CreateTables: true,
			InsertMethod: "multi",
			Delimiter:    ",",
		},
		Jobs: jobs,
	}
}

func newTestRunner(t *testing.T, cfg *config.Config) (*Runner, *silentReporter) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	r := NewWithWriter(cfg, sqlite.NewWriterFromDB(db))
	t.Cleanup(r.Close)
	rep := &silentReporter{}
	r.SetReporter(rep)
	return r, rep
}

func TestRunLoadsJobsInOrder(t *testing.T) {
	dir := t.TempDir()
	loans := writeFile(t, dir, "LoanData.csv", "id,amount\n1,10.5\n2,20.0\n3,5.25\n")
	repayments := writeFile(t, dir, "RepaymentsData.csv", "loan_id,paid\n1,true\n2,false\n")

	cfg := testConfig(
		config.JobConfig{File: loans, Table: "LoanData", BatchSize: intPtr(2)},
		config.JobConfig{File: repayments, Table: "RepaymentsData", BatchSize: intPtr(1000)},
	)
	r, rep := newTestRunner(t, cfg)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	require.Len(t, summary.Jobs, 2)
	assert.Equal(t, 2, summary.Jobs[0].Result.Batches)
	assert.Equal(t, 1, summary.Jobs[1].Result.Batches)
	assert.Equal(t, int64(5), summary.Rows())
	assert.Zero(t, summary.Failed())
	assert.Equal(t, []string{"LoanData", "RepaymentsData"}, rep.finished)

	counts := r.Count(context.Background())
	require.Len(t, counts, 2)
	assert.Equal(t, TableCount{Table: "LoanData", Exists: true, Rows: 3}, counts[0])
	assert.Equal(t, TableCount{Table: "RepaymentsData", Exists: true, Rows: 2}, counts[1])
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.csv", "id\n1\n")

	cfg := testConfig(
		config.JobConfig{File: filepath.Join(dir, "missing.csv"), Table: "First"},
		config.JobConfig{File: good, Table: "Second"},
	)
	r, _ := newTestRunner(t, cfg)

	summary, err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, loader.ErrFileAccess)
	require.Len(t, summary.Jobs, 1, "second job must not run")
	assert.Equal(t, 1, summary.Failed())

	counts := r.Count(context.Background())
	assert.False(t, counts[1].Exists)
}

func TestRunContinueOnError(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.csv", "id\n1\n2\n")
	bad := writeFile(t, dir, "bad.csv", "id,name\n1\n")

	cfg := testConfig(
		config.JobConfig{File: bad, Table: "Bad"},
		config.JobConfig{File: good, Table: "Good"},
	)
	cfg.Load.ContinueOnError = true
	r, _ := newTestRunner(t, cfg)

	summary, err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, loader.ErrParse)
	require.Len(t, summary.Jobs, 2)
	assert.Equal(t, 1, summary.Failed())
	assert.Equal(t, int64(2), summary.Rows())
}

func TestRunNoJobs(t *testing.T) {
	r, _ := newTestRunner(t, testConfig())
	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoJobs)
}

func TestLoadJobBatchSizeFallback(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Items.csv", "id\n1\n2\n3\n4\n5\n")

	cfg := testConfig()
	r, _ := newTestRunner(t, cfg)

	res, err := r.LoadJob(context.Background(), config.JobConfig{File: path, Table: "Inherited"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Batches, "job without batch size uses load.batch_size")

	cfg.Load.BatchSize = nil
	res, err = r.LoadJob(context.Background(), config.JobConfig{File: path, Table: "Defaulted"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Batches, "unset batch size falls back to the loader default")
}

func TestLoadJobValidation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.csv", "id\n1\n2\n3\n")

	cfg := testConfig()
	cfg.Load.Validate = true
	r, _ := newTestRunner(t, cfg)

	job := config.JobConfig{File: path, Table: "Validated"}
	res, err := r.LoadJob(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Rows)

	// A second load appends; validation compares growth, not totals.
	_, err = r.LoadJob(context.Background(), job)
	require.NoError(t, err)

	counts := r.Count(context.Background())
	assert.Empty(t, counts, "no jobs configured")
}

// growingWriter reports one extra row on every count after a write.
type growingWriter struct {
	driver.Writer
	extra int64
}

func (g *growingWriter) GetRowCount(ctx context.Context, schema, table string) (int64, error) {
	n, err := g.Writer.GetRowCount(ctx, schema, table)
	return n + g.extra, err
}

func (g *growingWriter) WriteBatch(ctx context.Context, opts driver.WriteBatchOptions) error {
	g.extra = 1
	return g.Writer.WriteBatch(ctx, opts)
}

func TestLoadJobValidationMismatch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.csv", "id\n1\n2\n")

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	cfg := testConfig()
	cfg.Load.Validate = true
	r := NewWithWriter(cfg, &growingWriter{Writer: sqlite.NewWriterFromDB(db)})
	t.Cleanup(r.Close)
	r.SetReporter(&silentReporter{})

	_, err = r.LoadJob(context.Background(), config.JobConfig{File: path, Table: "Drifted"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestHealthCheck(t *testing.T) {
	r, _ := newTestRunner(t, testConfig())
	res := r.HealthCheck(context.Background())
	assert.True(t, res.Healthy)
	assert.True(t, res.Connected)
	assert.Equal(t, "sqlite", res.TargetDBType)
	assert.Empty(t, res.Error)
}
