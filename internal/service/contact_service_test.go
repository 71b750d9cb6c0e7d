package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/ivr-backend/internal/errors"
	"github.com/unclebandit/ivr-backend/internal/metrics"
	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/repository/repotest"
	"github.com/unclebandit/ivr-backend/internal/schema"
	"github.com/unclebandit/ivr-backend/internal/service"
)

func newContactService() (*service.ContactService, *repotest.ContactRepo) {
	repo := repotest.NewContactRepo()
	return service.NewContactService(repo, schema.NewDefaultRegistry(), quietLogger()), repo
}

func TestContactService_OptOutStampsUnsubscriptionDate(t *testing.T) {
	svc, _ := newContactService()
	ctx := context.Background()

	c, err := svc.Create(ctx, model.ContactValues{Email: strPtr("a@x.com")})
	require.NoError(t, err)
	assert.Nil(t, c.UnsubscriptionDate)

	before := time.Now()
	require.NoError(t, svc.Write(ctx, []int64{c.ID}, model.ContactValues{OptOut: boolPtr(true)}))

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.OptOut)
	require.NotNil(t, got.UnsubscriptionDate)
	assert.False(t, got.UnsubscriptionDate.Before(before))
}

func TestContactService_OptInClearsUnsubscriptionDate(t *testing.T) {
	svc, _ := newContactService()
	ctx := context.Background()

	c, err := svc.Create(ctx, model.ContactValues{Email: strPtr("a@x.com"), OptOut: boolPtr(true)})
	require.NoError(t, err)
	require.NotNil(t, c.UnsubscriptionDate)

	require.NoError(t, svc.Write(ctx, []int64{c.ID}, model.ContactValues{OptOut: boolPtr(false)}))
	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.OptOut)
	assert.Nil(t, got.UnsubscriptionDate)
}

func TestContactService_CreateWithOptOut(t *testing.T) {
	svc, _ := newContactService()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }
	ctx := context.Background()

	out, err := svc.Create(ctx, model.ContactValues{Email: strPtr("out@x.com"), OptOut: boolPtr(true)})
	require.NoError(t, err)
	require.NotNil(t, out.UnsubscriptionDate)
	assert.True(t, out.UnsubscriptionDate.Equal(now))

	in, err := svc.Create(ctx, model.ContactValues{Email: strPtr("in@x.com"), OptOut: boolPtr(false)})
	require.NoError(t, err)
	assert.Nil(t, in.UnsubscriptionDate)
}

func TestContactService_WriteWithoutOptOutKeepsDate(t *testing.T) {
	svc, _ := newContactService()
	ctx := context.Background()

	c, err := svc.Create(ctx, model.ContactValues{Email: strPtr("a@x.com"), OptOut: boolPtr(true)})
	require.NoError(t, err)
	stamped := *c.UnsubscriptionDate

	require.NoError(t, svc.Write(ctx, []int64{c.ID}, model.ContactValues{Name: strPtr("Renamed")}))
	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.UnsubscriptionDate)
	assert.True(t, got.UnsubscriptionDate.Equal(stamped))
}

func TestContactService_WriteManyIsAllOrNothing(t *testing.T) {
	svc, _ := newContactService()
	ctx := context.Background()

	c, err := svc.Create(ctx, model.ContactValues{Email: strPtr("a@x.com")})
	require.NoError(t, err)

	err = svc.Write(ctx, []int64{c.ID, 99}, model.ContactValues{OptOut: boolPtr(true)})
	assert.True(t, appErrors.IsNotFound(err))

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.OptOut)
}

func TestContactService_OptOutMetric(t *testing.T) {
	svc, _ := newContactService()
	ctx := context.Background()

	a, err := svc.Create(ctx, model.ContactValues{Email: strPtr("a@x.com")})
	require.NoError(t, err)
	b, err := svc.Create(ctx, model.ContactValues{Email: strPtr("b@x.com")})
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.ContactsOptedOut)
	require.NoError(t, svc.Write(ctx, []int64{a.ID, b.ID}, model.ContactValues{OptOut: boolPtr(true)}))
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.ContactsOptedOut))
}

func TestContactService_RequiredEmail(t *testing.T) {
	svc, _ := newContactService()
	ctx := context.Background()

	_, err := svc.Create(ctx, model.ContactValues{Name: strPtr("No Email")})
	require.Error(t, err)
	assert.True(t, appErrors.IsMissingRequiredField(err))

	_, err = svc.Create(ctx, model.ContactValues{Email: strPtr("   ")})
	assert.True(t, appErrors.IsMissingRequiredField(err))

	c, err := svc.Create(ctx, model.ContactValues{Email: strPtr("  a@x.com ")})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", c.Email)

	err = svc.Write(ctx, []int64{c.ID}, model.ContactValues{Email: strPtr("")})
	assert.True(t, appErrors.IsMissingRequiredField(err))
}

func TestContactService_HooksRunInOrder(t *testing.T) {
	svc, _ := newContactService()
	var seen *time.Time
	svc.Hooks = append(svc.Hooks, func(op service.Operation, now time.Time, v model.ContactValues) (model.ContactValues, error) {
		if v.UnsubscriptionDate != nil && v.UnsubscriptionDate.Valid {
			ts := v.UnsubscriptionDate.Time
			seen = &ts
		}
		return v, nil
	})

	_, err := svc.Create(context.Background(), model.ContactValues{Email: strPtr("a@x.com"), OptOut: boolPtr(true)})
	require.NoError(t, err)
	assert.NotNil(t, seen, "later hooks see the stamped date")
}

func TestContactService_AddToList(t *testing.T) {
	svc, repo := newContactService()
	repo.KnownLists = map[int64]bool{5: true}
	ctx := context.Background()

	got, err := svc.AddToList(ctx, "Jane Doe <jane@x.com>", 5)
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", got.Label)

	c, err := svc.Get(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", c.Name)
	assert.Equal(t, "jane@x.com", c.Email)
	assert.Equal(t, []int64{5}, c.ListIDs)

	_, err = svc.AddToList(ctx, "bob@x.com", 404)
	var ref *appErrors.ErrInvalidReference
	assert.ErrorAs(t, err, &ref)
}

func TestContactService_NameCreate(t *testing.T) {
	svc, _ := newContactService()
	ctx := context.Background()

	tests := []struct {
		raw       string
		wantName  string
		wantEmail string
	}{
		{`"Jane Doe" <jane@x.com>`, "Jane Doe", "jane@x.com"},
		{"jane@x.com", "jane@x.com", "jane@x.com"},
		{"Jane Doe", "Jane Doe", "Jane Doe"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := svc.NameCreate(ctx, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEmail, got.Label)

			c, err := svc.Get(ctx, got.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, c.Name)
			assert.Equal(t, tt.wantEmail, c.Email)
		})
	}

	_, err := svc.NameCreate(ctx, "   ")
	assert.True(t, appErrors.IsMissingRequiredField(err))
}

func TestContactService_DefaultRecipients(t *testing.T) {
	svc, _ := newContactService()
	ctx := context.Background()

	a, err := svc.Create(ctx, model.ContactValues{Email: strPtr("a@x.com")})
	require.NoError(t, err)
	b, err := svc.Create(ctx, model.ContactValues{Email: strPtr("b@x.com")})
	require.NoError(t, err)

	got, err := svc.DefaultRecipients(ctx, []int64{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, map[int64]model.Recipient{
		a.ID: {PartnerIDs: []int64{}, EmailTo: "a@x.com", EmailCC: false},
		b.ID: {PartnerIDs: []int64{}, EmailTo: "b@x.com", EmailCC: false},
	}, got)

	_, err = svc.DefaultRecipients(ctx, []int64{a.ID, 77})
	assert.True(t, appErrors.IsNotFound(err))
}

func TestContactService_SearchPagination(t *testing.T) {
	svc, _ := newContactService()
	ctx := context.Background()
	for _, e := range []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com"} {
		_, err := svc.Create(ctx, model.ContactValues{Email: strPtr(e)})
		require.NoError(t, err)
	}

	page1, p1, err := svc.Search(ctx, service.ContactSearch{Page: 1, PageSize: 2})
	require.NoError(t, err)
	page3, _, err := svc.Search(ctx, service.ContactSearch{Page: 3, PageSize: 2})
	require.NoError(t, err)

	assert.Equal(t, 5, p1["total_count"])
	assert.Equal(t, 3, p1["total_pages"])
	require.Len(t, page1, 2)
	assert.Equal(t, "a@x.com", page1[0].Email)
	require.Len(t, page3, 1)
	assert.Equal(t, "e@x.com", page3[0].Email)
}
