package driver

import "strings"

// ColumnDef describes a column of a table to be created.
type ColumnDef struct {
	Name       string `json:"name"`
	DataType   string `json:"data_type"`
	IsNullable bool   `json:"is_nullable"`
}

// WriteBatchOptions contains the parameters of one batch write.
type WriteBatchOptions struct {
	// Schema is the target schema; empty means the connection default.
	Schema string

	// Table is the target table name, unquoted.
	Table string

	// Columns are the target column names in row order.
	Columns []string

	// Rows holds one slice of values per row, aligned with Columns.
	Rows [][]any
}

// FullName returns schema.table, or the bare table when schema is empty.
func (o WriteBatchOptions) FullName() string {
	if o.Schema == "" {
		return o.Table
	}
	return o.Schema + "." + o.Table
}

// ColumnList returns the quoted, comma-separated column list.
func ColumnList(d Dialect, cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

// CreateTableSQL builds a CREATE TABLE statement for the given columns.
// ifNotExists adds IF NOT EXISTS for dialects that support it.
func CreateTableSQL(d Dialect, schema, table string, cols []ColumnDef, ifNotExists bool) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if ifNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(d.QualifyTable(schema, table))
	sb.WriteString(" (\n")
	for i, c := range cols {
		if i > 0 {
			sb.WriteString(",\n")
		}
		sb.WriteString("    ")
		sb.WriteString(d.QuoteIdentifier(c.Name))
		sb.WriteString(" ")
		sb.WriteString(c.DataType)
		if !c.IsNullable {
			sb.WriteString(" NOT NULL")
		}
	}
	sb.WriteString("\n)")
	return sb.String()
}
