package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/ivr-backend/internal/errors"
	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/schema"
)

const (
	contactListRel = "ivr_contact_list_rel"
	contactTagRel  = "ivr_contact_tag_rel"

	contactColumns = "id, name, company_name, title, email, country, opt_out, unsubscription_date, message_bounce, create_date"
)

// ContactRepositoryInterface defines methods used by the contact service.
type ContactRepositoryInterface interface {
	Create(ctx context.Context, v model.ContactValues) (int64, error)
	Update(ctx context.Context, ids []int64, v model.ContactValues) error
	GetByID(ctx context.Context, id int64) (*model.Contact, error)
	GetByIDs(ctx context.Context, ids []int64) ([]model.Contact, error)
	List(ctx context.Context, f ContactFilter) ([]model.Contact, int, error)
	Delete(ctx context.Context, id int64) error
}

type ContactFilter struct {
	Search string
	ListID int64
	OptOut *bool
	Limit  int
	Offset int
}

type ContactRepository struct {
	DB    *sqlx.DB
	model schema.Model
}

func NewContactRepository(db *sqlx.DB, reg *schema.Registry) *ContactRepository {
	return &ContactRepository{DB: db, model: reg.MustLookup("ivr.contact")}
}

// Create inserts the contact and its list/tag links in one transaction.
func (r *ContactRepository) Create(ctx context.Context, v model.ContactValues) (int64, error) {
	var id int64
	err := withTx(ctx, r.DB, nil, func(tx *sqlx.Tx) error {
		var err error
		id, err = insertRow(ctx, tx, r.model.Table, v.Columns())
		if err != nil {
			return err
		}
		return writeContactRelations(ctx, tx, []int64{id}, v)
	})
	if err != nil {
		return 0, appErrors.FromPQ(r.model.Name, fmt.Errorf("create contact: %w", err))
	}
	return id, nil
}

// Update applies v to every contact in ids. It fails with ErrNotFound, and
// changes nothing, when any id is unknown.
func (r *ContactRepository) Update(ctx context.Context, ids []int64, v model.ContactValues) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	err := withTx(ctx, r.DB, nil, func(tx *sqlx.Tx) error {
		var n int64
		var err error
		if cols := v.Columns(); len(cols) > 0 {
			n, err = updateRows(ctx, tx, r.model.Table, ids, cols)
		} else {
			n, err = countIDs(ctx, tx, r.model.Table, ids)
		}
		if err != nil {
			return err
		}
		if n < int64(len(ids)) {
			return r.missing(ctx, tx, ids)
		}
		return writeContactRelations(ctx, tx, ids, v)
	})
	if err != nil {
		if appErrors.IsNotFound(err) {
			return err
		}
		return appErrors.FromPQ(r.model.Name, fmt.Errorf("update contacts: %w", err))
	}
	return nil
}

func (r *ContactRepository) missing(ctx context.Context, tx *sqlx.Tx, ids []int64) error {
	var existing []int64
	query := fmt.Sprintf("SELECT id FROM %s WHERE id = ANY($1)", r.model.Table)
	if err := tx.SelectContext(ctx, &existing, query, pq.Array(ids)); err != nil {
		return err
	}
	found := make(map[int64]bool, len(existing))
	for _, id := range existing {
		found[id] = true
	}
	id, ok := firstMissing(ids, found)
	if !ok {
		return fmt.Errorf("update %s: %d ids matched fewer rows than expected", r.model.Name, len(ids))
	}
	return appErrors.NewNotFound(r.model.Name, id)
}

func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*model.Contact, error) {
	var c model.Contact
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id=$1", contactColumns, r.model.Table)
	if err := getRow(ctx, r.DB, &c, r.model.Name, query, id); err != nil {
		return nil, err
	}
	contacts := []model.Contact{c}
	if err := loadContactRelations(ctx, r.DB, contacts); err != nil {
		return nil, err
	}
	return &contacts[0], nil
}

func (r *ContactRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Contact, error) {
	contacts := []model.Contact{}
	if len(ids) == 0 {
		return contacts, nil
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ANY($1) ORDER BY %s, id", contactColumns, r.model.Table, r.model.Order)
	if err := r.DB.SelectContext(ctx, &contacts, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("get contacts: %w", err)
	}
	if err := loadContactRelations(ctx, r.DB, contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *ContactRepository) List(ctx context.Context, f ContactFilter) ([]model.Contact, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	argPos := 1

	if f.Search != "" {
		where += fmt.Sprintf(" AND (email ILIKE $%d OR name ILIKE $%d)", argPos, argPos)
		args = append(args, "%"+f.Search+"%")
		argPos++
	}
	if f.ListID != 0 {
		where += fmt.Sprintf(" AND id IN (SELECT contact_id FROM %s WHERE list_id=$%d)", contactListRel, argPos)
		args = append(args, f.ListID)
		argPos++
	}
	if f.OptOut != nil {
		where += fmt.Sprintf(" AND opt_out=$%d", argPos)
		args = append(args, *f.OptOut)
		argPos++
	}

	var total int
	if err := r.DB.QueryRowxContext(ctx, "SELECT COUNT(*) FROM "+r.model.Table+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s, id", contactColumns, r.model.Table, where, r.model.Order)
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
		args = append(args, f.Limit, f.Offset)
	}

	contacts := []model.Contact{}
	if err := r.DB.SelectContext(ctx, &contacts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	if err := loadContactRelations(ctx, r.DB, contacts); err != nil {
		return nil, 0, err
	}
	return contacts, total, nil
}

func (r *ContactRepository) Delete(ctx context.Context, id int64) error {
	return deleteRow(ctx, r.DB, r.model.Name, r.model.Table, id)
}

func writeContactRelations(ctx context.Context, tx *sqlx.Tx, ids []int64, v model.ContactValues) error {
	if v.ListIDs != nil {
		if err := unlinkAll(ctx, tx, contactListRel, ids); err != nil {
			return err
		}
		if err := link(ctx, tx, contactListRel, "list_id", ids, *v.ListIDs); err != nil {
			return err
		}
	}
	if err := link(ctx, tx, contactListRel, "list_id", ids, v.LinkListIDs); err != nil {
		return err
	}
	if v.TagIDs != nil {
		if err := unlinkAll(ctx, tx, contactTagRel, ids); err != nil {
			return err
		}
		if err := link(ctx, tx, contactTagRel, "tag_id", ids, *v.TagIDs); err != nil {
			return err
		}
	}
	return nil
}

func unlinkAll(ctx context.Context, tx *sqlx.Tx, table string, contactIDs []int64) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE contact_id = ANY($1)", table), pq.Array(contactIDs))
	return err
}

// link pairs every contact with every target; existing links are kept.
func link(ctx context.Context, tx *sqlx.Tx, table, column string, contactIDs, targetIDs []int64) error {
	if len(contactIDs) == 0 || len(targetIDs) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
        INSERT INTO %s (contact_id, %s)
        SELECT c, t FROM unnest($1::bigint[]) AS c CROSS JOIN unnest($2::bigint[]) AS t
        ON CONFLICT DO NOTHING`, table, column)
	_, err := tx.ExecContext(ctx, query, pq.Array(contactIDs), pq.Array(targetIDs))
	return err
}

func loadContactRelations(ctx context.Context, q sqlx.QueryerContext, contacts []model.Contact) error {
	if len(contacts) == 0 {
		return nil
	}
	ids := make([]int64, len(contacts))
	for i := range contacts {
		ids[i] = contacts[i].ID
		contacts[i].ListIDs = []int64{}
		contacts[i].TagIDs = []int64{}
	}

	lists, err := loadRelation(ctx, q, contactListRel, "list_id", ids)
	if err != nil {
		return fmt.Errorf("load contact lists: %w", err)
	}
	tags, err := loadRelation(ctx, q, contactTagRel, "tag_id", ids)
	if err != nil {
		return fmt.Errorf("load contact tags: %w", err)
	}
	for i := range contacts {
		if l, ok := lists[contacts[i].ID]; ok {
			contacts[i].ListIDs = l
		}
		if t, ok := tags[contacts[i].ID]; ok {
			contacts[i].TagIDs = t
		}
	}
	return nil
}

func loadRelation(ctx context.Context, q sqlx.QueryerContext, table, column string, contactIDs []int64) (map[int64][]int64, error) {
	query := fmt.Sprintf("SELECT contact_id, %s FROM %s WHERE contact_id = ANY($1) ORDER BY contact_id, %s", column, table, column)
	rows, err := q.QueryxContext(ctx, query, pq.Array(contactIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64][]int64{}
	for rows.Next() {
		var contactID, targetID int64
		if err := rows.Scan(&contactID, &targetID); err != nil {
			return nil, err
		}
		out[contactID] = append(out[contactID], targetID)
	}
	return out, rows.Err()
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
