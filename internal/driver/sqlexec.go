package driver

import (
	"context"
	"database/sql"
	"fmt"
)

// ExecInTx runs the statements in order inside one transaction on db.
// Used by the database/sql based writers so that a batch split into several
// INSERT statements still commits or fails as a whole.
func ExecInTx(ctx context.Context, db *sql.DB, stmts []Statement) error {
	if len(stmts) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i, s := range stmts {
		if _, err := tx.ExecContext(ctx, s.SQL, s.Args...); err != nil {
			if len(stmts) == 1 {
				return err
			}
			return fmt.Errorf("statement %d of %d: %w", i+1, len(stmts), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// CountRows runs SELECT COUNT(*) against the qualified table.
func CountRows(ctx context.Context, db *sql.DB, d Dialect, schema, table string) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+d.QualifyTable(schema, table)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting rows in %s: %w", d.QualifyTable(schema, table), err)
	}
	return count, nil
}
