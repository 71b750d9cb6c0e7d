package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/ivr-backend/internal/errors"
)

func sortedColumns(cols map[string]any) []string {
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// insertRow inserts cols (in column-name order) and returns the new id.
func insertRow(ctx context.Context, q sqlx.QueryerContext, table string, cols map[string]any) (int64, error) {
	var query string
	var args []any
	if len(cols) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING id", table)
	} else {
		names := sortedColumns(cols)
		placeholders := make([]string, len(names))
		args = make([]any, len(names))
		for i, name := range names {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = cols[name]
		}
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
			table, strings.Join(names, ", "), strings.Join(placeholders, ", "))
	}

	var id int64
	if err := q.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// updateRows sets cols on every row in ids and returns the number of rows hit.
func updateRows(ctx context.Context, q sqlx.ExecerContext, table string, ids []int64, cols map[string]any) (int64, error) {
	names := sortedColumns(cols)
	sets := make([]string, len(names))
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		sets[i] = fmt.Sprintf("%s=$%d", name, i+1)
		args = append(args, cols[name])
	}
	args = append(args, pq.Array(ids))
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ANY($%d)", table, strings.Join(sets, ", "), len(names)+1)

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// countIDs returns how many of ids exist in table.
func countIDs(ctx context.Context, q sqlx.QueryerContext, table string, ids []int64) (int64, error) {
	var n int64
	err := q.QueryRowxContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ANY($1)", table), pq.Array(ids)).Scan(&n)
	return n, err
}

func deleteRow(ctx context.Context, q sqlx.ExecerContext, modelName, table string, id int64) error {
	res, err := q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id=$1", table), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", modelName, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return appErrors.NewNotFound(modelName, id)
	}
	return nil
}

func getRow(ctx context.Context, q sqlx.QueryerContext, dest any, modelName, query string, id int64) error {
	if err := sqlx.GetContext(ctx, q, dest, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NewNotFound(modelName, id)
		}
		return fmt.Errorf("get %s: %w", modelName, err)
	}
	return nil
}

// uniqueIDs drops repeated ids, keeping first-seen order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// firstMissing returns the first id of want that is not in found.
func firstMissing(want []int64, found map[int64]bool) (int64, bool) {
	for _, id := range want {
		if !found[id] {
			return id, true
		}
	}
	return 0, false
}

// withTx runs fn in a transaction, rolling back when fn fails.
func withTx(ctx context.Context, db *sqlx.DB, opts *sql.TxOptions, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
