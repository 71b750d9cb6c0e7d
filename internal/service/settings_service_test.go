package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/ivr-backend/internal/cache"
	appErrors "github.com/unclebandit/ivr-backend/internal/errors"
	"github.com/unclebandit/ivr-backend/internal/metrics"
	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/repository/repotest"
	"github.com/unclebandit/ivr-backend/internal/schema"
	"github.com/unclebandit/ivr-backend/internal/service"
)

var fixedNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func newSettingsService(t *testing.T, withCache bool) (*service.SettingsService, *repotest.SettingsRepo) {
	t.Helper()
	repo := repotest.NewSettingsRepo()
	svc := &service.SettingsService{
		Repo:     repo,
		APIs:     repotest.NewAPIRepo(),
		Registry: schema.NewDefaultRegistry(),
		Log:      quietLogger(),
		Now:      func() time.Time { return fixedNow },
	}
	if withCache {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() {
			client.Close()
			mr.Close()
		})
		svc.Cache = cache.NewSettingsCache(client, time.Minute)
	}
	return svc, repo
}

func gatewaySettings(user string, ex *time.Time) model.GatewaySettings {
	return model.GatewaySettings{UserName: user, Password: "secret", NumberID: "40404", Website: "https://gw.example", ExDate: ex}
}

func TestSettingsService_CurrentIsCachedAndInvalidated(t *testing.T) {
	svc, repo := newSettingsService(t, true)
	ctx := context.Background()

	_, err := svc.CreateGateway(ctx, model.ChannelShortCode, gatewaySettings("first", nil))
	require.NoError(t, err)

	cur, err := svc.Current(ctx, model.ChannelShortCode)
	require.NoError(t, err)
	assert.Equal(t, "first", cur.UserName)

	cur, err = svc.Current(ctx, model.ChannelShortCode)
	require.NoError(t, err)
	assert.Equal(t, "first", cur.UserName)
	assert.Equal(t, 1, repo.LatestCalls, "second read served from cache")

	_, err = svc.CreateGateway(ctx, model.ChannelShortCode, gatewaySettings("second", nil))
	require.NoError(t, err)

	cur, err = svc.Current(ctx, model.ChannelShortCode)
	require.NoError(t, err)
	assert.Equal(t, "second", cur.UserName)
	assert.Equal(t, 2, repo.LatestCalls)
}

func TestSettingsService_CurrentDoesNotCacheRowReplacedMidRead(t *testing.T) {
	svc, repo := newSettingsService(t, true)
	ctx := context.Background()

	_, err := svc.CreateGateway(ctx, model.ChannelLongCode, gatewaySettings("first", nil))
	require.NoError(t, err)

	repo.AfterLatest = func() {
		_, err := svc.CreateGateway(ctx, model.ChannelLongCode, gatewaySettings("second", nil))
		require.NoError(t, err)
	}
	cur, err := svc.Current(ctx, model.ChannelLongCode)
	require.NoError(t, err)
	assert.Equal(t, "first", cur.UserName)

	cur, err = svc.Current(ctx, model.ChannelLongCode)
	require.NoError(t, err)
	assert.Equal(t, "second", cur.UserName)
}

func TestSettingsService_CurrentWithoutCache(t *testing.T) {
	svc, repo := newSettingsService(t, false)
	ctx := context.Background()

	_, err := svc.Current(ctx, model.ChannelLongCode)
	assert.True(t, appErrors.IsNotFound(err))

	_, err = svc.CreateGateway(ctx, model.ChannelLongCode, gatewaySettings("acme", nil))
	require.NoError(t, err)
	_, err = svc.Current(ctx, model.ChannelLongCode)
	require.NoError(t, err)
	_, err = svc.Current(ctx, model.ChannelLongCode)
	require.NoError(t, err)
	assert.Equal(t, 3, repo.LatestCalls)
}

func TestSettingsService_Validation(t *testing.T) {
	svc, _ := newSettingsService(t, false)
	ctx := context.Background()

	_, err := svc.Current(ctx, model.ChannelIVR)
	var ic *appErrors.ErrInvalidChannel
	assert.ErrorAs(t, err, &ic)

	_, err = svc.CreateGateway(ctx, model.ChannelMissedCall, model.GatewaySettings{UserName: "acme"})
	var missing *appErrors.ErrMissingRequiredField
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "missedcall.settings", missing.Model)
	assert.Equal(t, "password", missing.Field)

	_, err = svc.CreateIVR(ctx, model.IVRSettings{AppDescription: "IVR"})
	assert.True(t, appErrors.IsMissingRequiredField(err))

	_, err = svc.CreateAPI(ctx, model.ChannelShortCode, model.GatewayAPI{Name: "send", API: "https://gw.example/send"})
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "model", missing.Field)

	_, err = svc.CreateAPI(ctx, model.ChannelIVR, model.GatewayAPI{Name: "a", API: "b", Model: "c"})
	assert.ErrorAs(t, err, &ic)
}

func TestSettingsService_IVRRoundTrip(t *testing.T) {
	svc, _ := newSettingsService(t, false)
	ctx := context.Background()

	in := model.IVRSettings{
		AppDescription: "Main IVR", OrganisationName: "FN4", Category: "support", Channel: "voice",
		AccessKey: "ak", AuthorizationKey: "auth", Website: "https://ivr.example", ClientKey: "ck", ClientSecret: "cs",
	}
	created, err := svc.CreateIVR(ctx, in)
	require.NoError(t, err)

	in.Category = "sales"
	updated, err := svc.UpdateIVR(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "sales", updated.Category)

	require.NoError(t, svc.DeleteIVR(ctx, created.ID))
	_, err = svc.GetIVR(ctx, created.ID)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestExpiryWatcher_Check(t *testing.T) {
	svc, _ := newSettingsService(t, false)
	ctx := context.Background()

	soon := fixedNow.Add(3 * 24 * time.Hour)
	later := fixedNow.Add(60 * 24 * time.Hour)
	expired := fixedNow.Add(-24 * time.Hour)
	for _, tc := range []struct {
		channel model.Channel
		ex      *time.Time
	}{
		{model.ChannelShortCode, &soon},
		{model.ChannelShortCode, &expired},
		{model.ChannelShortCode, &later},
		{model.ChannelLongCode, nil},
		{model.ChannelMissedCall, &soon},
	} {
		_, err := svc.CreateGateway(ctx, tc.channel, gatewaySettings("acme", tc.ex))
		require.NoError(t, err)
	}

	w := &service.ExpiryWatcher{Settings: svc, Window: 7 * 24 * time.Hour, Log: quietLogger()}
	n, err := w.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SettingsExpiring.WithLabelValues("short")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SettingsExpiring.WithLabelValues("missedcall")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.SettingsExpiring.WithLabelValues("long")))
}

func TestExpiryWatcher_StartRejectsBadSchedule(t *testing.T) {
	svc, _ := newSettingsService(t, false)
	w := &service.ExpiryWatcher{Settings: svc, Window: time.Hour, Log: quietLogger()}

	assert.Error(t, w.Start("not a schedule"))
	require.NoError(t, w.Start("@every 1h"))
	w.Stop()
}

func TestSettingsService_APIRoundTrip(t *testing.T) {
	svc, _ := newSettingsService(t, false)
	ctx := context.Background()

	created, err := svc.CreateAPI(ctx, model.ChannelLongCode, model.GatewayAPI{Name: "send", API: "https://gw.example/send", Model: "long.call"})
	require.NoError(t, err)

	got, err := svc.GetAPI(ctx, model.ChannelLongCode, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "send", got.Name)

	short, err := svc.ListAPIs(ctx, model.ChannelShortCode)
	require.NoError(t, err)
	assert.Empty(t, short)

	require.NoError(t, svc.DeleteAPI(ctx, model.ChannelLongCode, created.ID))
	_, err = svc.GetAPI(ctx, model.ChannelLongCode, created.ID)
	assert.True(t, appErrors.IsNotFound(err))
}
