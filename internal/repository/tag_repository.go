package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/ivr-backend/internal/errors"
	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/schema"
)

type TagRepositoryInterface interface {
	Create(ctx context.Context, t model.Tag) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Tag, error)
	List(ctx context.Context) ([]model.Tag, error)
	Delete(ctx context.Context, id int64) error
}

type TagRepository struct {
	DB    *sqlx.DB
	model schema.Model
}

func NewTagRepository(db *sqlx.DB, reg *schema.Registry) *TagRepository {
	return &TagRepository{DB: db, model: reg.MustLookup("ivr.tag")}
}

// Create fails with ErrDuplicateKey when the name is taken.
func (r *TagRepository) Create(ctx context.Context, t model.Tag) (int64, error) {
	id, err := insertRow(ctx, r.DB, r.model.Table, t.Columns())
	if err != nil {
		return 0, appErrors.FromPQ(r.model.Name, fmt.Errorf("create tag: %w", err))
	}
	return id, nil
}

func (r *TagRepository) GetByID(ctx context.Context, id int64) (*model.Tag, error) {
	var t model.Tag
	query := fmt.Sprintf("SELECT id, name, color FROM %s WHERE id=$1", r.model.Table)
	if err := getRow(ctx, r.DB, &t, r.model.Name, query, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TagRepository) List(ctx context.Context) ([]model.Tag, error) {
	tags := []model.Tag{}
	query := fmt.Sprintf("SELECT id, name, color FROM %s ORDER BY %s, id", r.model.Table, r.model.Order)
	if err := r.DB.SelectContext(ctx, &tags, query); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (r *TagRepository) Delete(ctx context.Context, id int64) error {
	return deleteRow(ctx, r.DB, r.model.Name, r.model.Table, id)
}

var _ TagRepositoryInterface = (*TagRepository)(nil)
