package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/johndauphine/csvload/internal/dbconfig"
	"github.com/johndauphine/csvload/internal/driver"
	"github.com/johndauphine/csvload/internal/logging"
	mssql "github.com/microsoft/go-mssqldb"
)

// Writer implements driver.Writer for SQL Server.
type Writer struct {
	db           *sql.DB
	config       *dbconfig.TargetConfig
	dialect      *Dialect
	insertMethod string
}

// NewWriter creates a new SQL Server writer.
func NewWriter(cfg *dbconfig.TargetConfig, opts driver.WriterOptions) (*Writer, error) {
	dialect := &Dialect{}
	dsn := dialect.BuildDSN(cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, cfg.DSNOptions())

	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening connection: %w", err)
	}

	maxConns := opts.MaxConns
	if maxConns <= 0 {
		maxConns = 4
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logging.Debug("Connected to SQL Server target: %s:%d/%s", cfg.Host, cfg.Port, cfg.Database)

	method := opts.InsertMethod
	if method == "" {
		method = "multi"
	}
	return &Writer{db: db, config: cfg, dialect: dialect, insertMethod: method}, nil
}

// Close closes all connections.
func (w *Writer) Close() {
	w.db.Close()
}

// Ping tests the connection.
func (w *Writer) Ping(ctx context.Context) error {
	return w.db.PingContext(ctx)
}

// DBType returns the database type.
func (w *Writer) DBType() string {
	return "mssql"
}

// TableExists checks if a table exists. An empty schema means SCHEMA_NAME().
func (w *Writer) TableExists(ctx context.Context, schema, table string) (bool, error) {
	var count int
	err := w.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = COALESCE(NULLIF(@p1, ''), SCHEMA_NAME())
		  AND TABLE_NAME = @p2
	`, schema, table).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", w.dialect.QualifyTable(schema, table), err)
	}
	return count > 0, nil
}

// CreateTable creates the table unless it already exists.
// SQL Server has no CREATE TABLE IF NOT EXISTS, so the guard uses OBJECT_ID.
func (w *Writer) CreateTable(ctx context.Context, schema, table string, cols []driver.ColumnDef) error {
	qualified := w.dialect.QualifyTable(schema, table)
	ddl := fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\n%s",
		strings.ReplaceAll(qualified, "'", "''"), driver.CreateTableSQL(w.dialect, schema, table, cols, false))

	logging.Debug("Creating table: %s", ddl)
	if _, err := w.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", qualified, err)
	}
	return nil
}

// GetRowCount returns the exact row count for a table.
func (w *Writer) GetRowCount(ctx context.Context, schema, table string) (int64, error) {
	return driver.CountRows(ctx, w.db, w.dialect, schema, table)
}

// WriteBatch appends rows with multi-row INSERT statements in one
// transaction, or with the TDS bulk copy protocol for insert method "copy".
func (w *Writer) WriteBatch(ctx context.Context, opts driver.WriteBatchOptions) error {
	if len(opts.Rows) == 0 {
		return nil
	}
	if w.insertMethod == "copy" {
		return w.bulkCopy(ctx, opts)
	}

	stmts, err := driver.InsertStatements(w.dialect, opts)
	if err != nil {
		return err
	}
	return driver.ExecInTx(ctx, w.db, stmts)
}

func (w *Writer) bulkCopy(ctx context.Context, opts driver.WriteBatchOptions) error {
	fullTableName := w.dialect.QualifyTable(opts.Schema, opts.Table)

	conn, err := w.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("getting connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn any) error {
		mssqlConn, ok := driverConn.(*mssql.Conn)
		if !ok {
			return fmt.Errorf("expected *mssql.Conn, got %T", driverConn)
		}

		bulk := mssqlConn.CreateBulkContext(ctx, fullTableName, opts.Columns)
		bulk.Options.Tablock = true
		bulk.Options.RowsPerBatch = len(opts.Rows)

		for _, row := range opts.Rows {
			if err := bulk.AddRow(row); err != nil {
				return fmt.Errorf("adding row: %w", err)
			}
		}

		rowsAffected, err := bulk.Done()
		if err != nil {
			return fmt.Errorf("finalizing bulk insert: %w", err)
		}
		if rowsAffected != int64(len(opts.Rows)) {
			return fmt.Errorf("bulk insert: expected %d rows, got %d", len(opts.Rows), rowsAffected)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bulk copy into %s: %w", fullTableName, err)
	}
	return nil
}
