package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/ivr-backend/internal/errors"
	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/schema"
)

const listColumns = "id, name, active, create_date"

// contactCountQuery counts, per list, the linked contacts that have not opted out.
const contactCountQuery = `
        SELECT r.list_id, COUNT(*)
        FROM ivr_contact_list_rel r
        LEFT JOIN ivr_contact c ON (r.contact_id = c.id)
        WHERE c.opt_out <> true
        GROUP BY r.list_id`

type ListRepositoryInterface interface {
	Create(ctx context.Context, v model.ListValues) (int64, error)
	Update(ctx context.Context, id int64, v model.ListValues) error
	GetByID(ctx context.Context, id int64) (*model.List, error)
	List(ctx context.Context, f ListFilter) ([]model.List, int, error)
	Delete(ctx context.Context, id int64) error
	ContactCounts(ctx context.Context) (map[int64]int, error)
}

type ListFilter struct {
	Search string
	Active *bool
	Limit  int
	Offset int
}

type ListRepository struct {
	DB    *sqlx.DB
	model schema.Model
}

func NewListRepository(db *sqlx.DB, reg *schema.Registry) *ListRepository {
	return &ListRepository{DB: db, model: reg.MustLookup("ivr.list")}
}

var readOnly = &sql.TxOptions{ReadOnly: true}

func (r *ListRepository) Create(ctx context.Context, v model.ListValues) (int64, error) {
	id, err := insertRow(ctx, r.DB, r.model.Table, v.Columns())
	if err != nil {
		return 0, appErrors.FromPQ(r.model.Name, fmt.Errorf("create list: %w", err))
	}
	return id, nil
}

func (r *ListRepository) Update(ctx context.Context, id int64, v model.ListValues) error {
	cols := v.Columns()
	var n int64
	var err error
	if len(cols) == 0 {
		n, err = countIDs(ctx, r.DB, r.model.Table, []int64{id})
	} else {
		n, err = updateRows(ctx, r.DB, r.model.Table, []int64{id}, cols)
	}
	if err != nil {
		return appErrors.FromPQ(r.model.Name, fmt.Errorf("update list: %w", err))
	}
	if n == 0 {
		return appErrors.NewNotFound(r.model.Name, id)
	}
	return nil
}

// GetByID reads the list and its contact count in the same transaction.
func (r *ListRepository) GetByID(ctx context.Context, id int64) (*model.List, error) {
	var l model.List
	err := withTx(ctx, r.DB, readOnly, func(tx *sqlx.Tx) error {
		query := fmt.Sprintf("SELECT %s FROM %s WHERE id=$1", listColumns, r.model.Table)
		if err := getRow(ctx, tx, &l, r.model.Name, query, id); err != nil {
			return err
		}
		counts, err := contactCounts(ctx, tx)
		if err != nil {
			return err
		}
		l.ContactNbr = counts[l.ID]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ListRepository) List(ctx context.Context, f ListFilter) ([]model.List, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	argPos := 1

	if f.Search != "" {
		where += fmt.Sprintf(" AND name ILIKE $%d", argPos)
		args = append(args, "%"+f.Search+"%")
		argPos++
	}
	if f.Active != nil {
		where += fmt.Sprintf(" AND active=$%d", argPos)
		args = append(args, *f.Active)
		argPos++
	}

	lists := []model.List{}
	var total int
	err := withTx(ctx, r.DB, readOnly, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx, "SELECT COUNT(*) FROM "+r.model.Table+where, args...).Scan(&total); err != nil {
			return fmt.Errorf("count lists: %w", err)
		}

		query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s, id", listColumns, r.model.Table, where, r.model.Order)
		queryArgs := args
		if f.Limit > 0 {
			query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
			queryArgs = append(queryArgs, f.Limit, f.Offset)
		}
		if err := tx.SelectContext(ctx, &lists, query, queryArgs...); err != nil {
			return fmt.Errorf("list lists: %w", err)
		}

		counts, err := contactCounts(ctx, tx)
		if err != nil {
			return err
		}
		for i := range lists {
			lists[i].ContactNbr = counts[lists[i].ID]
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return lists, total, nil
}

func (r *ListRepository) Delete(ctx context.Context, id int64) error {
	return deleteRow(ctx, r.DB, r.model.Name, r.model.Table, id)
}

func (r *ListRepository) ContactCounts(ctx context.Context) (map[int64]int, error) {
	return contactCounts(ctx, r.DB)
}

// contactCounts returns the non-opted-out contact count keyed by list id.
// Lists without such contacts are absent; callers default them to zero.
func contactCounts(ctx context.Context, q sqlx.QueryerContext) (map[int64]int, error) {
	rows, err := q.QueryContext(ctx, contactCountQuery)
	if err != nil {
		return nil, fmt.Errorf("count list contacts: %w", err)
	}
	defer rows.Close()

	counts := map[int64]int{}
	for rows.Next() {
		var listID int64
		var count int
		if err := rows.Scan(&listID, &count); err != nil {
			return nil, err
		}
		counts[listID] = count
	}
	return counts, rows.Err()
}

var _ ListRepositoryInterface = (*ListRepository)(nil)
