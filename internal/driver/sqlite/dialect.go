package sqlite

import (
	"net/url"
	"strings"
)

// Dialect implements driver.Dialect for SQLite.
type Dialect struct{}

func (d *Dialect) DBType() string { return "sqlite" }

func (d *Dialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifyTable prefixes the attached database name when schema is set.
func (d *Dialect) QualifyTable(schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}

func (d *Dialect) ParameterPlaceholder(_ int) string {
	return "?"
}

// BuildDSN returns the database path. Host, port and credentials do not
// apply. A busy timeout is added so a second process waits for the write
// lock instead of failing with SQLITE_BUSY.
func (d *Dialect) BuildDSN(_ string, _ int, database, _, _ string, _ map[string]any) string {
	if database == "" {
		database = ":memory:"
	}
	if database == ":memory:" {
		return database
	}
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	sep := "?"
	if strings.Contains(database, "?") {
		sep = "&"
	}
	return database + sep + q.Encode()
}

// MaxParameters is SQLITE_MAX_VARIABLE_NUMBER for SQLite 3.32 and later.
func (d *Dialect) MaxParameters() int { return 32766 }

func (d *Dialect) MaxRowsPerInsert() int { return 0 }
