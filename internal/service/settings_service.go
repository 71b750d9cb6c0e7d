package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/ivr-backend/internal/cache"
	appErrors "github.com/unclebandit/ivr-backend/internal/errors"
	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/repository"
	"github.com/unclebandit/ivr-backend/internal/schema"
)

// SettingsService manages provider credentials and registered gateway APIs.
// The dispatch process reads them through Current; nothing here calls a gateway.
type SettingsService struct {
	Repo     repository.SettingsRepositoryInterface
	APIs     repository.GatewayAPIRepositoryInterface
	Registry *schema.Registry
	Cache    *cache.SettingsCache
	Log      logrus.FieldLogger
	Now      func() time.Time
}

func (s *SettingsService) require(modelName string, cols map[string]any) error {
	if missing := s.Registry.Missing(modelName, cols); len(missing) > 0 {
		return appErrors.NewMissingRequiredField(modelName, missing[0])
	}
	return nil
}

func gatewayChannel(channel model.Channel) error {
	if !channel.HasGateway() {
		return appErrors.NewInvalidChannel(string(channel))
	}
	return nil
}

// ====================== IVR settings ======================

func (s *SettingsService) CreateIVR(ctx context.Context, in model.IVRSettings) (*model.IVRSettings, error) {
	if err := s.require("ivr.settings", in.Columns()); err != nil {
		return nil, err
	}
	id, err := s.Repo.CreateIVR(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.Repo.GetIVR(ctx, id)
}

// UpdateIVR replaces every field of the row.
func (s *SettingsService) UpdateIVR(ctx context.Context, id int64, in model.IVRSettings) (*model.IVRSettings, error) {
	if err := s.require("ivr.settings", in.Columns()); err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateIVR(ctx, id, in); err != nil {
		return nil, err
	}
	return s.Repo.GetIVR(ctx, id)
}

func (s *SettingsService) GetIVR(ctx context.Context, id int64) (*model.IVRSettings, error) {
	return s.Repo.GetIVR(ctx, id)
}

func (s *SettingsService) ListIVR(ctx context.Context) ([]model.IVRSettings, error) {
	return s.Repo.ListIVR(ctx)
}

func (s *SettingsService) DeleteIVR(ctx context.Context, id int64) error {
	return s.Repo.DeleteIVR(ctx, id)
}

// ====================== Gateway settings ======================

func (s *SettingsService) CreateGateway(ctx context.Context, channel model.Channel, in model.GatewaySettings) (*model.GatewaySettings, error) {
	if err := gatewayChannel(channel); err != nil {
		return nil, err
	}
	if err := s.require(channel.SettingsModel(), in.Columns()); err != nil {
		return nil, err
	}
	id, err := s.Repo.CreateGateway(ctx, channel, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, channel)
	return s.Repo.GetGateway(ctx, channel, id)
}

func (s *SettingsService) UpdateGateway(ctx context.Context, channel model.Channel, id int64, in model.GatewaySettings) (*model.GatewaySettings, error) {
	if err := gatewayChannel(channel); err != nil {
		return nil, err
	}
	if err := s.require(channel.SettingsModel(), in.Columns()); err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateGateway(ctx, channel, id, in); err != nil {
		return nil, err
	}
	s.invalidate(ctx, channel)
	return s.Repo.GetGateway(ctx, channel, id)
}

func (s *SettingsService) GetGateway(ctx context.Context, channel model.Channel, id int64) (*model.GatewaySettings, error) {
	return s.Repo.GetGateway(ctx, channel, id)
}

func (s *SettingsService) ListGateway(ctx context.Context, channel model.Channel) ([]model.GatewaySettings, error) {
	return s.Repo.ListGateway(ctx, channel)
}

func (s *SettingsService) DeleteGateway(ctx context.Context, channel model.Channel, id int64) error {
	if err := s.Repo.DeleteGateway(ctx, channel, id); err != nil {
		return err
	}
	s.invalidate(ctx, channel)
	return nil
}

// Current returns the newest settings row of a channel, served from the
// cache when possible.
func (s *SettingsService) Current(ctx context.Context, channel model.Channel) (*model.GatewaySettings, error) {
	if err := gatewayChannel(channel); err != nil {
		return nil, err
	}
	cached, ok, err := s.Cache.Get(ctx, channel)
	if err != nil {
		s.Log.WithField("channel", channel).WithError(err).Warn("⚠️ Settings cache read failed")
	}
	if ok {
		return cached, nil
	}

	// A write that lands between the read below and the cache fill bumps the
	// version, and the fill is skipped.
	version, verr := s.Cache.Version(ctx, channel)
	current, err := s.Repo.LatestGateway(ctx, channel)
	if err != nil {
		return nil, err
	}
	if verr != nil {
		s.Log.WithField("channel", channel).WithError(verr).Warn("⚠️ Settings cache read failed")
		return current, nil
	}
	if err := s.Cache.SetIfVersion(ctx, current, version); err != nil {
		s.Log.WithField("channel", channel).WithError(err).Warn("⚠️ Settings cache write failed")
	}
	return current, nil
}

// Expiring returns gateway settings of every channel whose expiry date falls
// before now+within. Rows that already expired are included.
func (s *SettingsService) Expiring(ctx context.Context, within time.Duration) ([]model.GatewaySettings, error) {
	cutoff := s.Now().Add(within)
	out := []model.GatewaySettings{}
	for _, channel := range model.GatewayChannels {
		rows, err := s.Repo.ExpiringGateway(ctx, channel, cutoff)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (s *SettingsService) invalidate(ctx context.Context, channel model.Channel) {
	if err := s.Cache.Invalidate(ctx, channel); err != nil {
		s.Log.WithField("channel", channel).WithError(err).Warn("⚠️ Settings cache invalidation failed")
	}
}

// ====================== Gateway APIs ======================

func (s *SettingsService) CreateAPI(ctx context.Context, channel model.Channel, in model.GatewayAPI) (*model.GatewayAPI, error) {
	if err := gatewayChannel(channel); err != nil {
		return nil, err
	}
	if err := s.require(channel.APIsModel(), in.Columns()); err != nil {
		return nil, err
	}
	id, err := s.APIs.Create(ctx, channel, in)
	if err != nil {
		return nil, err
	}
	return s.APIs.GetByID(ctx, channel, id)
}

func (s *SettingsService) GetAPI(ctx context.Context, channel model.Channel, id int64) (*model.GatewayAPI, error) {
	return s.APIs.GetByID(ctx, channel, id)
}

func (s *SettingsService) ListAPIs(ctx context.Context, channel model.Channel) ([]model.GatewayAPI, error) {
	return s.APIs.List(ctx, channel)
}

func (s *SettingsService) DeleteAPI(ctx context.Context, channel model.Channel, id int64) error {
	return s.APIs.Delete(ctx, channel, id)
}
