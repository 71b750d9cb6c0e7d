// Package app wires repositories and services for the server and worker binaries.
package app

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/ivr-backend/internal/cache"
	"github.com/unclebandit/ivr-backend/internal/config"
	"github.com/unclebandit/ivr-backend/internal/repository"
	"github.com/unclebandit/ivr-backend/internal/schema"
	"github.com/unclebandit/ivr-backend/internal/service"
)

type Services struct {
	Registry *schema.Registry
	Contacts *service.ContactService
	Lists    *service.ListService
	Tags     *service.TagService
	Calls    *service.CallService
	Settings *service.SettingsService
}

func NewServices(db *sqlx.DB, rdb *redis.Client, cfg *config.Config, log logrus.FieldLogger) *Services {
	reg := schema.NewDefaultRegistry()

	return &Services{
		Registry: reg,
		Contacts: service.NewContactService(repository.NewContactRepository(db, reg), reg, log),
		Lists:    &service.ListService{Repo: repository.NewListRepository(db, reg), Registry: reg},
		Tags:     &service.TagService{Repo: repository.NewTagRepository(db, reg)},
		Calls:    &service.CallService{Repo: &repository.CallRepository{DB: db, Registry: reg}, Log: log},
		Settings: &service.SettingsService{
			Repo:     &repository.SettingsRepository{DB: db, Registry: reg},
			APIs:     &repository.GatewayAPIRepository{DB: db, Registry: reg},
			Registry: reg,
			Cache:    cache.NewSettingsCache(rdb, cfg.Redis.TTL()),
			Log:      log,
			Now:      time.Now,
		},
	}
}

// OpenRedis returns nil when no address is configured. A Redis that doesn't
// answer is logged and skipped; the settings cache is optional.
func OpenRedis(ctx context.Context, cfg config.RedisConfig, log logrus.FieldLogger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).WithField("addr", cfg.Addr).Warn("⚠️ Redis unavailable, settings cache disabled")
		_ = rdb.Close()
		return nil
	}
	log.WithField("addr", cfg.Addr).Info("✅ Connected to Redis")
	return rdb
}
