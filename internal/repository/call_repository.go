package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/ivr-backend/internal/errors"
	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/schema"
)

// CallRepositoryInterface is append-only: call logs are never updated.
type CallRepositoryInterface interface {
	Create(ctx context.Context, channel model.Channel, call model.CallLog) (int64, error)
	GetByID(ctx context.Context, channel model.Channel, id int64) (*model.CallLog, error)
	List(ctx context.Context, channel model.Channel, offset, limit int) ([]model.CallLog, int, error)
	Delete(ctx context.Context, channel model.Channel, id int64) error
}

type CallRepository struct {
	DB       *sqlx.DB
	Registry *schema.Registry
}

func (r *CallRepository) lookup(channel model.Channel) (schema.Model, string, error) {
	m, ok := r.Registry.Lookup(channel.CallModel())
	if !ok {
		return schema.Model{}, "", appErrors.NewInvalidChannel(string(channel))
	}
	columns := "id, create_date, " + strings.Join(model.CallColumns(channel), ", ")
	return m, columns, nil
}

func (r *CallRepository) Create(ctx context.Context, channel model.Channel, call model.CallLog) (int64, error) {
	m, _, err := r.lookup(channel)
	if err != nil {
		return 0, err
	}
	id, err := insertRow(ctx, r.DB, m.Table, call.Columns(channel))
	if err != nil {
		return 0, appErrors.FromPQ(m.Name, fmt.Errorf("create %s: %w", m.Name, err))
	}
	return id, nil
}

func (r *CallRepository) GetByID(ctx context.Context, channel model.Channel, id int64) (*model.CallLog, error) {
	m, columns, err := r.lookup(channel)
	if err != nil {
		return nil, err
	}
	var c model.CallLog
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id=$1", columns, m.Table)
	if err := getRow(ctx, r.DB, &c, m.Name, query, id); err != nil {
		return nil, err
	}
	c.Channel = channel
	return &c, nil
}

func (r *CallRepository) List(ctx context.Context, channel model.Channel, offset, limit int) ([]model.CallLog, int, error) {
	m, columns, err := r.lookup(channel)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.QueryRowxContext(ctx, "SELECT COUNT(*) FROM "+m.Table).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", m.Name, err)
	}

	calls := []model.CallLog{}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s, id LIMIT $1 OFFSET $2", columns, m.Table, m.Order)
	if err := r.DB.SelectContext(ctx, &calls, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", m.Name, err)
	}
	for i := range calls {
		calls[i].Channel = channel
	}
	return calls, total, nil
}

func (r *CallRepository) Delete(ctx context.Context, channel model.Channel, id int64) error {
	m, _, err := r.lookup(channel)
	if err != nil {
		return err
	}
	return deleteRow(ctx, r.DB, m.Name, m.Table, id)
}

var _ CallRepositoryInterface = (*CallRepository)(nil)
