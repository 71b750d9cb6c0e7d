package app

import (
	"context"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/ivr-backend/internal/config"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestOpenRedis(t *testing.T) {
	assert.Nil(t, OpenRedis(context.Background(), config.RedisConfig{}, quietLogger()))

	mr := miniredis.RunT(t)
	rdb := OpenRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()}, quietLogger())
	require.NotNil(t, rdb)
	_ = rdb.Close()

	mr.Close()
	assert.Nil(t, OpenRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()}, quietLogger()))
}

func TestNewServices(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewServices(sqlx.NewDb(db, "postgres"), nil, &config.Config{}, quietLogger())
	require.NotNil(t, svc.Registry)
	_, ok := svc.Registry.Lookup("short.settings")
	assert.True(t, ok)
	assert.NotNil(t, svc.Contacts)
	assert.NotNil(t, svc.Settings)
	assert.Nil(t, svc.Settings.Cache)
}
