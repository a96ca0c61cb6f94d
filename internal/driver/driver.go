// Package driver provides pluggable target database abstractions.
// Each database (PostgreSQL, SQL Server, MySQL, SQLite) implements the Driver
// interface to provide its dialect and a batch Writer in one unit.
package driver

import (
	"context"

	"github.com/johndauphine/csvload/internal/dbconfig"
)

// DriverDefaults contains default values for a database driver.
// Used by config.applyDefaults() to set sensible defaults for each database type.
type DriverDefaults struct {
	// Port is the default port (e.g., 5432 for PostgreSQL, 1433 for MSSQL).
	// Zero for file-based databases.
	Port int

	// Schema is the default schema (e.g., "public" for PostgreSQL, "dbo" for MSSQL).
	// Empty when the database has no separate schema namespace.
	Schema string

	// SSLMode is the default SSL mode for PostgreSQL-style connections.
	SSLMode string
}

// Driver represents a pluggable target database.
//
// To add a new database:
// 1. Create a package under internal/driver/<dbname>/
// 2. Implement the Driver interface
// 3. Register via init(): driver.Register(&MyDriver{})
type Driver interface {
	// Name returns the primary driver name (e.g., "postgres", "mssql").
	Name() string

	// Aliases returns alternative names for this driver.
	// For example, postgres might have aliases ["postgresql", "pg"].
	Aliases() []string

	// Defaults returns the default configuration values for this driver.
	Defaults() DriverDefaults

	// Dialect returns the SQL dialect for this database.
	Dialect() Dialect

	// NewWriter opens a connection pool to the target.
	NewWriter(cfg *dbconfig.TargetConfig, opts WriterOptions) (Writer, error)
}

// WriterOptions contains options for creating a Writer.
type WriterOptions struct {
	// MaxConns caps the size of the connection pool. Zero means 4.
	MaxConns int

	// InsertMethod selects how a batch is sent: "multi" (multi-row INSERT,
	// the default) or "copy" where the driver supports a bulk protocol.
	InsertMethod string
}

// Dialect captures the SQL differences between target databases.
type Dialect interface {
	// DBType returns the canonical driver name.
	DBType() string

	// QuoteIdentifier quotes a single identifier, escaping embedded quotes.
	QuoteIdentifier(name string) string

	// QualifyTable returns the quoted schema.table, or just the quoted table
	// when schema is empty.
	QualifyTable(schema, table string) string

	// ParameterPlaceholder returns the bind placeholder for the 1-based index.
	ParameterPlaceholder(index int) string

	// BuildDSN builds a connection string for the database.
	BuildDSN(host string, port int, database, user, password string, opts map[string]any) string

	// MaxParameters is the bind parameter limit of a single statement.
	MaxParameters() int

	// MaxRowsPerInsert is the row limit of a single VALUES list (0 = none).
	MaxRowsPerInsert() int
}

// Writer appends rows to target tables. A Writer is owned by whoever opened
// it; the loader only borrows it.
type Writer interface {
	// WriteBatch appends one batch of rows as a single unit of work.
	// Either every row of the batch is committed or none is.
	WriteBatch(ctx context.Context, opts WriteBatchOptions) error

	// TableExists reports whether schema.table exists.
	TableExists(ctx context.Context, schema, table string) (bool, error)

	// CreateTable creates schema.table with the given columns if it does not exist.
	CreateTable(ctx context.Context, schema, table string, cols []ColumnDef) error

	// GetRowCount returns an exact row count.
	GetRowCount(ctx context.Context, schema, table string) (int64, error)

	// Ping tests the connection.
	Ping(ctx context.Context) error

	// DBType returns the database type.
	DBType() string

	// Close closes all connections.
	Close()
}
