package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/johndauphine/csvload/internal/dbconfig"
	"github.com/johndauphine/csvload/internal/driver"
	"github.com/johndauphine/csvload/internal/logging"

	_ "modernc.org/sqlite"
)

// Writer implements driver.Writer for SQLite.
type Writer struct {
	db      *sql.DB
	dialect *Dialect
}

// NewWriter opens the database file named by cfg.Database (":memory:" when
// empty) and verifies it.
func NewWriter(cfg *dbconfig.TargetConfig, opts driver.WriterOptions) (*Writer, error) {
	dialect := &Dialect{}
	dsn := dialect.BuildDSN(cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, cfg.DSNOptions())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logging.Debug("Opened SQLite target: %s", dsn)

	if opts.InsertMethod == "copy" {
		logging.Warn("SQLite has no bulk copy protocol; using multi-row INSERT")
	}

	return NewWriterFromDB(db), nil
}

// NewWriterFromDB wraps an open database handle. The writer takes ownership
// of db and closes it in Close. SQLite allows a single writer, and an
// in-memory database lives on one connection, so the pool is capped at one.
func NewWriterFromDB(db *sql.DB) *Writer {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	return &Writer{db: db, dialect: &Dialect{}}
}

// Close closes the database.
func (w *Writer) Close() {
	w.db.Close()
}

// Ping tests the connection.
func (w *Writer) Ping(ctx context.Context) error {
	return w.db.PingContext(ctx)
}

// DBType returns the database type.
func (w *Writer) DBType() string {
	return "sqlite"
}

// TableExists checks sqlite_master of the main (or the named attached) database.
func (w *Writer) TableExists(ctx context.Context, schema, table string) (bool, error) {
	master := "sqlite_master"
	if schema != "" {
		master = w.dialect.QuoteIdentifier(schema) + ".sqlite_master"
	}
	var count int
	err := w.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+master+" WHERE type = 'table' AND name = ?", table).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", w.dialect.QualifyTable(schema, table), err)
	}
	return count > 0, nil
}

// CreateTable creates the table if it does not already exist.
func (w *Writer) CreateTable(ctx context.Context, schema, table string, cols []driver.ColumnDef) error {
	ddl := driver.CreateTableSQL(w.dialect, schema, table, cols, true)
	logging.Debug("Creating table: %s", ddl)
	if _, err := w.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", w.dialect.QualifyTable(schema, table), err)
	}
	return nil
}

// GetRowCount returns the exact row count for a table.
func (w *Writer) GetRowCount(ctx context.Context, schema, table string) (int64, error) {
	return driver.CountRows(ctx, w.db, w.dialect, schema, table)
}

// WriteBatch appends rows with multi-row INSERT statements in one transaction.
func (w *Writer) WriteBatch(ctx context.Context, opts driver.WriteBatchOptions) error {
	if len(opts.Rows) == 0 {
		return nil
	}
	stmts, err := driver.InsertStatements(w.dialect, opts)
	if err != nil {
		return err
	}
	return driver.ExecInTx(ctx, w.db, stmts)
}
