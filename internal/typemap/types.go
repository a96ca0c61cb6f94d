// Package typemap maps inferred CSV column kinds to target SQL types, used
// when the loader creates a missing table.
package typemap

import (
	"strings"

	"github.com/johndauphine/csvload/internal/dataset"
	"github.com/johndauphine/csvload/internal/driver"
)

// ColumnType returns the SQL type used for a column of the given kind on
// dbType. Unknown database types get portable ANSI names.
func ColumnType(dbType string, kind dataset.Kind) string {
	switch driver.Canonical(strings.TrimSpace(dbType)) {
	case "postgres", "postgresql", "pg":
		return postgresType(kind)
	case "mssql", "sqlserver", "sql-server":
		return mssqlType(kind)
	case "mysql", "mariadb", "maria":
		return mysqlType(kind)
	case "sqlite", "sqlite3":
		return sqliteType(kind)
	default:
		return ansiType(kind)
	}
}

// ColumnDefs builds nullable column definitions for every dataset column.
// Every column is nullable because null tokens may appear in any column.
func ColumnDefs(dbType string, cols []dataset.Column) []driver.ColumnDef {
	defs := make([]driver.ColumnDef, len(cols))
	for i, c := range cols {
		defs[i] = driver.ColumnDef{
			Name:       c.Name,
			DataType:   ColumnType(dbType, c.Kind),
			IsNullable: true,
		}
	}
	return defs
}

func postgresType(kind dataset.Kind) string {
	switch kind {
	case dataset.KindInt:
		return "bigint"
	case dataset.KindFloat:
		return "double precision"
	case dataset.KindBool:
		return "boolean"
	default:
		return "text"
	}
}

func mssqlType(kind dataset.Kind) string {
	switch kind {
	case dataset.KindInt:
		return "bigint"
	case dataset.KindFloat:
		return "float" // float(53), 8 bytes
	case dataset.KindBool:
		return "bit"
	default:
		return "nvarchar(max)"
	}
}

func mysqlType(kind dataset.Kind) string {
	switch kind {
	case dataset.KindInt:
		return "bigint"
	case dataset.KindFloat:
		return "double"
	case dataset.KindBool:
		return "boolean" // alias for tinyint(1)
	default:
		return "longtext"
	}
}

// SQLite has type affinity rather than types; booleans are stored as 0/1.
func sqliteType(kind dataset.Kind) string {
	switch kind {
	case dataset.KindInt, dataset.KindBool:
		return "INTEGER"
	case dataset.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

func ansiType(kind dataset.Kind) string {
	switch kind {
	case dataset.KindInt:
		return "BIGINT"
	case dataset.KindFloat:
		return "DOUBLE PRECISION"
	case dataset.KindBool:
		return "BOOLEAN"
	default:
		return "VARCHAR(4000)"
	}
}
