package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/johndauphine/csvload/internal/dbconfig"
	"github.com/johndauphine/csvload/internal/driver"
	"github.com/johndauphine/csvload/internal/logging"

	_ "github.com/go-sql-driver/mysql"
)

// Writer implements driver.Writer for MySQL/MariaDB.
type Writer struct {
	db      *sql.DB
	config  *dbconfig.TargetConfig
	dialect *Dialect
}

// NewWriter creates a new MySQL writer.
func NewWriter(cfg *dbconfig.TargetConfig, opts driver.WriterOptions) (*Writer, error) {
	dialect := &Dialect{}
	dsn := dialect.BuildDSN(cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, cfg.DSNOptions())

	db, err := sql.Open("mysql", dsn)
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

	logging.Debug("Connected to MySQL target: %s:%d/%s", cfg.Host, cfg.Port, cfg.Database)

	if opts.InsertMethod == "copy" {
		logging.Warn("MySQL has no bulk copy protocol; using multi-row INSERT")
	}

	return &Writer{db: db, config: cfg, dialect: dialect}, nil
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
	return "mysql"
}

// TableExists checks if a table exists. An empty schema means DATABASE().
func (w *Writer) TableExists(ctx context.Context, schema, table string) (bool, error) {
	var count int
	err := w.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
		  AND table_name = ?
	`, schema, table).Scan(&count)
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

// WriteBatch writes a batch of rows using multi-row INSERT.
func (w *Writer) WriteBatch(ctx context.Context, opts driver.WriteBatchOptions) error {
	if len(opts.Rows) == 0 {
		return nil
	}

	converted := opts
	converted.Rows = make([][]any, len(opts.Rows))
	for i, row := range opts.Rows {
		converted.Rows[i] = convertRowValues(row)
	}

	stmts, err := driver.InsertStatements(w.dialect, converted)
	if err != nil {
		return err
	}
	return driver.ExecInTx(ctx, w.db, stmts)
}

// convertRowValues converts row values to MySQL-compatible types.
func convertRowValues(row []any) []any {
	result := make([]any, len(row))
	for i, v := range row {
		switch val := v.(type) {
		case []byte:
			// Keep binary data as-is for MySQL
			result[i] = val
		case bool:
			// MySQL uses 1/0 for boolean
			if val {
				result[i] = 1
			} else {
				result[i] = 0
			}
		default:
			result[i] = v
		}
	}
	return result
}
