package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/johndauphine/csvload/internal/dbconfig"
	"github.com/johndauphine/csvload/internal/driver"
	"github.com/johndauphine/csvload/internal/logging"
)

// Writer implements driver.Writer for PostgreSQL.
type Writer struct {
	pool         *pgxpool.Pool
	config       *dbconfig.TargetConfig
	dialect      *Dialect
	insertMethod string
}

// NewWriter creates a new PostgreSQL writer and verifies the connection.
func NewWriter(cfg *dbconfig.TargetConfig, opts driver.WriterOptions) (*Writer, error) {
	dialect := &Dialect{}
	dsn := dialect.BuildDSN(cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, cfg.DSNOptions())

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}

	maxConns := opts.MaxConns
	if maxConns <= 0 {
		maxConns = 4
	}
	poolCfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logging.Debug("Connected to PostgreSQL target: %s:%d/%s", cfg.Host, cfg.Port, cfg.Database)

	return NewWriterFromPool(pool, cfg, opts), nil
}

// NewWriterFromPool wraps an existing pool. The writer takes ownership of
// the pool and closes it in Close.
func NewWriterFromPool(pool *pgxpool.Pool, cfg *dbconfig.TargetConfig, opts driver.WriterOptions) *Writer {
	method := opts.InsertMethod
	if method == "" {
		method = "multi"
	}
	return &Writer{
		pool:         pool,
		config:       cfg,
		dialect:      &Dialect{},
		insertMethod: method,
	}
}

// Close closes all connections.
func (w *Writer) Close() {
	w.pool.Close()
}

// Ping tests the connection.
func (w *Writer) Ping(ctx context.Context) error {
	return w.pool.Ping(ctx)
}

// DBType returns the database type.
func (w *Writer) DBType() string {
	return "postgres"
}

// TableExists checks if a table exists. An empty schema means current_schema().
func (w *Writer) TableExists(ctx context.Context, schema, table string) (bool, error) {
	var exists bool
	err := w.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema())
			  AND table_name = $2
		)
	`, schema, table).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", w.dialect.QualifyTable(schema, table), err)
	}
	return exists, nil
}

// CreateTable creates the table if it does not already exist.
func (w *Writer) CreateTable(ctx context.Context, schema, table string, cols []driver.ColumnDef) error {
	ddl := driver.CreateTableSQL(w.dialect, schema, table, cols, true)
	logging.Debug("Creating table: %s", ddl)
	if _, err := w.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", w.dialect.QualifyTable(schema, table), err)
	}
	return nil
}

// GetRowCount returns the exact row count for a table.
func (w *Writer) GetRowCount(ctx context.Context, schema, table string) (int64, error) {
	var count int64
	err := w.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+w.dialect.QualifyTable(schema, table)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting rows in %s: %w", w.dialect.QualifyTable(schema, table), err)
	}
	return count, nil
}

// WriteBatch appends rows using multi-row INSERT, or the COPY protocol when
// the writer was opened with insert method "copy".
func (w *Writer) WriteBatch(ctx context.Context, opts driver.WriteBatchOptions) error {
	if len(opts.Rows) == 0 {
		return nil
	}
	if w.insertMethod == "copy" {
		return w.copyBatch(ctx, opts)
	}

	stmts, err := driver.InsertStatements(w.dialect, opts)
	if err != nil {
		return err
	}
	if len(stmts) == 1 {
		_, err := w.pool.Exec(ctx, stmts[0].SQL, stmts[0].Args...)
		return err
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, s := range stmts {
		if _, err := tx.Exec(ctx, s.SQL, s.Args...); err != nil {
			return fmt.Errorf("statement %d of %d: %w", i+1, len(stmts), err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

func (w *Writer) copyBatch(ctx context.Context, opts driver.WriteBatchOptions) error {
	ident := pgx.Identifier{opts.Table}
	if opts.Schema != "" {
		ident = pgx.Identifier{opts.Schema, opts.Table}
	}

	n, err := w.pool.CopyFrom(ctx, ident, opts.Columns, pgx.CopyFromRows(opts.Rows))
	if err != nil {
		return fmt.Errorf("copy into %s: %w", opts.FullName(), err)
	}
	if n != int64(len(opts.Rows)) {
		return fmt.Errorf("copy into %s: expected %d rows, got %d", opts.FullName(), len(opts.Rows), n)
	}
	return nil
}
