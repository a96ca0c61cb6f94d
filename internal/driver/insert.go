package driver

import (
	"fmt"
	"strings"
)

// Statement is a SQL statement with its bind arguments.
type Statement struct {
	SQL  string
	Args []any
}

// BuildInsertSQL builds a multi-row INSERT for nrows rows:
//
//	INSERT INTO "s"."t" ("a", "b") VALUES ($1, $2), ($3, $4)
func BuildInsertSQL(d Dialect, schema, table string, columns []string, nrows int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", d.QualifyTable(schema, table), ColumnList(d, columns))

	n := 1
	for r := 0; r < nrows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := range columns {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.ParameterPlaceholder(n))
			n++
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// RowsPerStatement returns how many rows of ncols columns fit in one INSERT
// under the dialect's parameter and row limits. It is at least 1.
func RowsPerStatement(d Dialect, ncols int) int {
	limit := 0
	if maxParams := d.MaxParameters(); maxParams > 0 && ncols > 0 {
		limit = maxParams / ncols
	}
	if maxRows := d.MaxRowsPerInsert(); maxRows > 0 && (limit == 0 || maxRows < limit) {
		limit = maxRows
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

// InsertStatements splits a batch into as few multi-row INSERT statements as
// the dialect allows. Rows keep their order across statements. Statements of
// equal width share the same SQL text.
func InsertStatements(d Dialect, opts WriteBatchOptions) ([]Statement, error) {
	if len(opts.Columns) == 0 {
		return nil, fmt.Errorf("insert into %s: no columns", opts.FullName())
	}
	if len(opts.Rows) == 0 {
		return nil, nil
	}

	per := RowsPerStatement(d, len(opts.Columns))
	stmts := make([]Statement, 0, (len(opts.Rows)+per-1)/per)
	sqlByWidth := make(map[int]string, 2)

	for start := 0; start < len(opts.Rows); start += per {
		end := min(start+per, len(opts.Rows))
		chunk := opts.Rows[start:end]

		args := make([]any, 0, len(chunk)*len(opts.Columns))
		for i, row := range chunk {
			if len(row) != len(opts.Columns) {
				return nil, fmt.Errorf("insert into %s: row %d has %d values, want %d",
					opts.FullName(), start+i, len(row), len(opts.Columns))
			}
			args = append(args, row...)
		}

		query, ok := sqlByWidth[len(chunk)]
		if !ok {
			query = BuildInsertSQL(d, opts.Schema, opts.Table, opts.Columns, len(chunk))
			sqlByWidth[len(chunk)] = query
		}
		stmts = append(stmts, Statement{SQL: query, Args: args})
	}
	return stmts, nil
}
