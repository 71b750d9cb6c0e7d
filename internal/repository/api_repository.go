package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/ivr-backend/internal/errors"
	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/schema"
)

type GatewayAPIRepositoryInterface interface {
	Create(ctx context.Context, channel model.Channel, a model.GatewayAPI) (int64, error)
	GetByID(ctx context.Context, channel model.Channel, id int64) (*model.GatewayAPI, error)
	List(ctx context.Context, channel model.Channel) ([]model.GatewayAPI, error)
	Delete(ctx context.Context, channel model.Channel, id int64) error
}

type GatewayAPIRepository struct {
	DB       *sqlx.DB
	Registry *schema.Registry
}

func (r *GatewayAPIRepository) lookup(channel model.Channel) (schema.Model, error) {
	if !channel.HasGateway() {
		return schema.Model{}, appErrors.NewInvalidChannel(string(channel))
	}
	m, ok := r.Registry.Lookup(channel.APIsModel())
	if !ok {
		return schema.Model{}, appErrors.NewInvalidChannel(string(channel))
	}
	return m, nil
}

func (r *GatewayAPIRepository) Create(ctx context.Context, channel model.Channel, a model.GatewayAPI) (int64, error) {
	m, err := r.lookup(channel)
	if err != nil {
		return 0, err
	}
	id, err := insertRow(ctx, r.DB, m.Table, a.Columns())
	if err != nil {
		return 0, appErrors.FromPQ(m.Name, fmt.Errorf("create %s: %w", m.Name, err))
	}
	return id, nil
}

func (r *GatewayAPIRepository) GetByID(ctx context.Context, channel model.Channel, id int64) (*model.GatewayAPI, error) {
	m, err := r.lookup(channel)
	if err != nil {
		return nil, err
	}
	var a model.GatewayAPI
	query := fmt.Sprintf("SELECT id, create_date, name, api, model FROM %s WHERE id=$1", m.Table)
	if err := getRow(ctx, r.DB, &a, m.Name, query, id); err != nil {
		return nil, err
	}
	a.Channel = channel
	return &a, nil
}

func (r *GatewayAPIRepository) List(ctx context.Context, channel model.Channel) ([]model.GatewayAPI, error) {
	m, err := r.lookup(channel)
	if err != nil {
		return nil, err
	}
	out := []model.GatewayAPI{}
	query := fmt.Sprintf("SELECT id, create_date, name, api, model FROM %s ORDER BY %s, id", m.Table, m.Order)
	if err := r.DB.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", m.Name, err)
	}
	for i := range out {
		out[i].Channel = channel
	}
	return out, nil
}

func (r *GatewayAPIRepository) Delete(ctx context.Context, channel model.Channel, id int64) error {
	m, err := r.lookup(channel)
	if err != nil {
		return err
	}
	return deleteRow(ctx, r.DB, m.Name, m.Table, id)
}

var _ GatewayAPIRepositoryInterface = (*GatewayAPIRepository)(nil)
