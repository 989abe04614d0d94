package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/signalnine/simsweep/internal/extract"
	_ "modernc.org/sqlite"
)

// WriteSQLite recreates table in the database at path and inserts rows.
// Absent metrics are stored as NULL.
func WriteSQLite(ctx context.Context, path, table string, columns []string, rows []extract.Row) error {
	if table == "" {
		return fmt.Errorf("sqlite table name is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open dataset db: %w", err)
	}
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}

	defs := make([]string, len(columns))
	for i, col := range columns {
		typ := "REAL"
		if col == ColConfigID || col == ColWorkloadID {
			typ = "TEXT NOT NULL"
		}
		defs[i] = quoteIdent(col) + " " + typ
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s, PRIMARY KEY (%s, %s))",
		quoteIdent(table), strings.Join(defs, ", "), quoteIdent(ColConfigID), quoteIdent(ColWorkloadID))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(quoted, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")))
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	args := make([]any, len(columns))
	for _, r := range rows {
		for i, col := range columns {
			v, ok := cell(r, col)
			if !ok {
				args[i] = nil
				continue
			}
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert %s/%s: %w", r.ConfigID, r.WorkloadID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
