package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/ivr-backend/internal/errors"
	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/schema"
)

const (
	ivrSettingsColumns = "id, create_date, app_description, organisation_name, category, channel, " +
		"access_key, authorization_key, website, client_key, client_secret"
	gatewaySettingsColumns = "id, create_date, ex_date, user_name, password, number_id, website"
)

type SettingsRepositoryInterface interface {
	CreateIVR(ctx context.Context, s model.IVRSettings) (int64, error)
	UpdateIVR(ctx context.Context, id int64, s model.IVRSettings) error
	GetIVR(ctx context.Context, id int64) (*model.IVRSettings, error)
	ListIVR(ctx context.Context) ([]model.IVRSettings, error)
	DeleteIVR(ctx context.Context, id int64) error

	CreateGateway(ctx context.Context, channel model.Channel, s model.GatewaySettings) (int64, error)
	UpdateGateway(ctx context.Context, channel model.Channel, id int64, s model.GatewaySettings) error
	GetGateway(ctx context.Context, channel model.Channel, id int64) (*model.GatewaySettings, error)
	ListGateway(ctx context.Context, channel model.Channel) ([]model.GatewaySettings, error)
	LatestGateway(ctx context.Context, channel model.Channel) (*model.GatewaySettings, error)
	ExpiringGateway(ctx context.Context, channel model.Channel, before time.Time) ([]model.GatewaySettings, error)
	DeleteGateway(ctx context.Context, channel model.Channel, id int64) error
}

type SettingsRepository struct {
	DB       *sqlx.DB
	Registry *schema.Registry
}

func (r *SettingsRepository) ivr() schema.Model {
	return r.Registry.MustLookup("ivr.settings")
}

func (r *SettingsRepository) gateway(channel model.Channel) (schema.Model, error) {
	if !channel.HasGateway() {
		return schema.Model{}, appErrors.NewInvalidChannel(string(channel))
	}
	m, ok := r.Registry.Lookup(channel.SettingsModel())
	if !ok {
		return schema.Model{}, appErrors.NewInvalidChannel(string(channel))
	}
	return m, nil
}

// ====================== IVR settings ======================

func (r *SettingsRepository) CreateIVR(ctx context.Context, s model.IVRSettings) (int64, error) {
	m := r.ivr()
	id, err := insertRow(ctx, r.DB, m.Table, s.Columns())
	if err != nil {
		return 0, appErrors.FromPQ(m.Name, fmt.Errorf("create ivr settings: %w", err))
	}
	return id, nil
}

func (r *SettingsRepository) UpdateIVR(ctx context.Context, id int64, s model.IVRSettings) error {
	m := r.ivr()
	return r.update(ctx, m, id, s.Columns())
}

func (r *SettingsRepository) GetIVR(ctx context.Context, id int64) (*model.IVRSettings, error) {
	m := r.ivr()
	var s model.IVRSettings
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id=$1", ivrSettingsColumns, m.Table)
	if err := getRow(ctx, r.DB, &s, m.Name, query, id); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) ListIVR(ctx context.Context) ([]model.IVRSettings, error) {
	m := r.ivr()
	out := []model.IVRSettings{}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s, id", ivrSettingsColumns, m.Table, m.Order)
	if err := r.DB.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list ivr settings: %w", err)
	}
	return out, nil
}

func (r *SettingsRepository) DeleteIVR(ctx context.Context, id int64) error {
	m := r.ivr()
	return deleteRow(ctx, r.DB, m.Name, m.Table, id)
}

// ====================== Gateway settings ======================

func (r *SettingsRepository) CreateGateway(ctx context.Context, channel model.Channel, s model.GatewaySettings) (int64, error) {
	m, err := r.gateway(channel)
	if err != nil {
		return 0, err
	}
	id, err := insertRow(ctx, r.DB, m.Table, s.Columns())
	if err != nil {
		return 0, appErrors.FromPQ(m.Name, fmt.Errorf("create %s: %w", m.Name, err))
	}
	return id, nil
}

func (r *SettingsRepository) UpdateGateway(ctx context.Context, channel model.Channel, id int64, s model.GatewaySettings) error {
	m, err := r.gateway(channel)
	if err != nil {
		return err
	}
	return r.update(ctx, m, id, s.Columns())
}

func (r *SettingsRepository) GetGateway(ctx context.Context, channel model.Channel, id int64) (*model.GatewaySettings, error) {
	m, err := r.gateway(channel)
	if err != nil {
		return nil, err
	}
	var s model.GatewaySettings
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id=$1", gatewaySettingsColumns, m.Table)
	if err := getRow(ctx, r.DB, &s, m.Name, query, id); err != nil {
		return nil, err
	}
	s.Channel = channel
	return &s, nil
}

func (r *SettingsRepository) ListGateway(ctx context.Context, channel model.Channel) ([]model.GatewaySettings, error) {
	m, err := r.gateway(channel)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s, id", gatewaySettingsColumns, m.Table, m.Order)
	return r.selectGateway(ctx, channel, m, query)
}

// LatestGateway returns the most recently created settings row of the channel.
func (r *SettingsRepository) LatestGateway(ctx context.Context, channel model.Channel) (*model.GatewaySettings, error) {
	m, err := r.gateway(channel)
	if err != nil {
		return nil, err
	}
	var s model.GatewaySettings
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY create_date DESC, id DESC LIMIT 1", gatewaySettingsColumns, m.Table)
	if err := r.DB.GetContext(ctx, &s, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound(m.Name, 0)
		}
		return nil, fmt.Errorf("latest %s: %w", m.Name, err)
	}
	s.Channel = channel
	return &s, nil
}

// ExpiringGateway returns settings whose expiry date is on or before the given time.
func (r *SettingsRepository) ExpiringGateway(ctx context.Context, channel model.Channel, before time.Time) ([]model.GatewaySettings, error) {
	m, err := r.gateway(channel)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE ex_date IS NOT NULL AND ex_date <= $1 ORDER BY ex_date, id", gatewaySettingsColumns, m.Table)
	return r.selectGateway(ctx, channel, m, query, before)
}

func (r *SettingsRepository) DeleteGateway(ctx context.Context, channel model.Channel, id int64) error {
	m, err := r.gateway(channel)
	if err != nil {
		return err
	}
	return deleteRow(ctx, r.DB, m.Name, m.Table, id)
}

func (r *SettingsRepository) selectGateway(ctx context.Context, channel model.Channel, m schema.Model, query string, args ...any) ([]model.GatewaySettings, error) {
	out := []model.GatewaySettings{}
	if err := r.DB.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", m.Name, err)
	}
	for i := range out {
		out[i].Channel = channel
	}
	return out, nil
}

func (r *SettingsRepository) update(ctx context.Context, m schema.Model, id int64, cols map[string]any) error {
	n, err := updateRows(ctx, r.DB, m.Table, []int64{id}, cols)
	if err != nil {
		return appErrors.FromPQ(m.Name, fmt.Errorf("update %s: %w", m.Name, err))
	}
	if n == 0 {
		return appErrors.NewNotFound(m.Name, id)
	}
	return nil
}

var _ SettingsRepositoryInterface = (*SettingsRepository)(nil)
