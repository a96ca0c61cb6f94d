//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/johndauphine/csvload/internal/dbconfig"
	"github.com/johndauphine/csvload/internal/driver"
)

// startPostgres starts a throwaway PostgreSQL container and returns a writer on it.
func startPostgres(t *testing.T, method string) *Writer {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.WithDatabase("bondora"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { ctr.Terminate(context.Background()) }) //nolint:errcheck

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	w := NewWriterFromPool(pool, &dbconfig.TargetConfig{Type: "postgres", Schema: "public"},
		driver.WriterOptions{InsertMethod: method})
	t.Cleanup(w.Close)
	return w
}

func TestWriterIntegration(t *testing.T) {
	for _, method := range []string{"multi", "copy"} {
		t.Run(method, func(t *testing.T) {
			w := startPostgres(t, method)
			ctx := context.Background()

			exists, err := w.TableExists(ctx, "public", "LoanData")
			require.NoError(t, err)
			assert.False(t, exists)

			cols := []driver.ColumnDef{
				{Name: "id", DataType: "bigint", IsNullable: true},
				{Name: "amount", DataType: "double precision", IsNullable: true},
			}
			require.NoError(t, w.CreateTable(ctx, "public", "LoanData", cols))
			// Creating again is a no-op.
			require.NoError(t, w.CreateTable(ctx, "public", "LoanData", cols))

			exists, err = w.TableExists(ctx, "public", "LoanData")
			require.NoError(t, err)
			assert.True(t, exists)

			batch := driver.WriteBatchOptions{
				Schema:  "public",
				Table:   "LoanData",
				Columns: []string{"id", "amount"},
				Rows:    [][]any{{int64(1), 10.5}, {int64(2), 20.0}, {int64(3), nil}},
			}
			require.NoError(t, w.WriteBatch(ctx, batch))

			count, err := w.GetRowCount(ctx, "public", "LoanData")
			require.NoError(t, err)
			assert.Equal(t, int64(3), count)

			bad := batch
			bad.Table = "Missing"
			assert.Error(t, w.WriteBatch(ctx, bad))
		})
	}
}
