package controller_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/ivr-backend/internal/controller"
	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/repository/repotest"
	"github.com/unclebandit/ivr-backend/internal/schema"
	"github.com/unclebandit/ivr-backend/internal/service"
)

type fixture struct {
	router   chi.Router
	contacts *repotest.ContactRepo
	calls    *repotest.CallRepo
}

func newFixture() *fixture {
	log := logrus.New()
	log.SetOutput(io.Discard)
	reg := schema.NewDefaultRegistry()

	contactRepo := repotest.NewContactRepo()
	callRepo := repotest.NewCallRepo()
	contactSvc := service.NewContactService(contactRepo, reg, log)

	contacts := &controller.ContactController{ContactService: contactSvc, Log: log}
	lists := &controller.ListController{
		ListService:    &service.ListService{Repo: repotest.NewListRepo(contactRepo), Registry: reg},
		ContactService: contactSvc,
		Log:            log,
	}
	tags := &controller.TagController{TagService: &service.TagService{Repo: repotest.NewTagRepo()}, Log: log}
	calls := &controller.CallController{CallService: &service.CallService{Repo: callRepo, Log: log}, Log: log}
	settings := &controller.SettingsController{
		SettingsService: &service.SettingsService{
			Repo:     repotest.NewSettingsRepo(),
			APIs:     repotest.NewAPIRepo(),
			Registry: reg,
			Log:      log,
		},
		Log: log,
	}

	r := chi.NewRouter()
	r.Get("/contacts", contacts.ListContacts)
	r.Post("/contacts", contacts.CreateContact)
	r.Post("/contacts/name-create", contacts.NameCreate)
	r.Get("/contacts/{id}", contacts.GetContact)
	r.Patch("/contacts/{id}", contacts.UpdateContact)
	r.Delete("/contacts/{id}", contacts.DeleteContact)
	r.Post("/lists", lists.CreateList)
	r.Get("/lists", lists.ListLists)
	r.Get("/lists/{id}", lists.GetList)
	r.Post("/lists/{id}/contacts", lists.AddContact)
	r.Post("/tags", tags.CreateTag)
	r.Get("/calls/{channel}", calls.ListCalls)
	r.Post("/calls/{channel}", calls.CreateCall)
	r.Post("/gateways/{channel}/settings", settings.CreateGateway)
	r.Get("/gateways/{channel}/settings/current", settings.CurrentGateway)

	return &fixture{router: r, contacts: contactRepo, calls: callRepo}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}

func TestCreateContactAndOptOut(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodPost, "/contacts", map[string]any{"email": "a@x.com", "name": "A"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var created model.Contact
	decodeBody(t, w, &created)
	assert.Equal(t, "a@x.com", created.Email)
	assert.Nil(t, created.UnsubscriptionDate)

	w = f.do(t, http.MethodPatch, "/contacts/1", map[string]any{"opt_out": true})
	require.Equal(t, http.StatusOK, w.Code)
	var updated model.Contact
	decodeBody(t, w, &updated)
	assert.True(t, updated.OptOut)
	assert.NotNil(t, updated.UnsubscriptionDate)
}

func TestCreateContactMissingEmail(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodPost, "/contacts", map[string]any{"name": "A"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp controller.ErrorResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, "missing_required_field", resp.Code)
}

func TestCreateContactInvalidJSON(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodPost, "/contacts", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetContactNotFound(t *testing.T) {
	f := newFixture()

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/contacts/42", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/contacts/abc", nil).Code)
}

func TestNameCreate(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodPost, "/contacts/name-create", map[string]string{"name": "Jane Doe <jane@x.com>"})
	require.Equal(t, http.StatusCreated, w.Code)

	var res service.NameLabel
	decodeBody(t, w, &res)
	assert.Equal(t, int64(1), res.ID)
	assert.Equal(t, "jane@x.com", res.Label)
}

func TestListContactNbrThroughAPI(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodPost, "/lists", map[string]any{"name": "Leads"})
	require.Equal(t, http.StatusCreated, w.Code)

	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/lists/1/contacts", map[string]string{"name": "a@x.com"}).Code)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/lists/1/contacts", map[string]string{"name": "b@x.com"}).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPatch, "/contacts/2", map[string]any{"opt_out": true}).Code)

	w = f.do(t, http.MethodGet, "/lists/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list model.List
	decodeBody(t, w, &list)
	assert.Equal(t, 1, list.ContactNbr)
}

func TestListContactsPagination(t *testing.T) {
	f := newFixture()
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/contacts", map[string]any{"email": email}).Code)
	}

	w := f.do(t, http.MethodGet, "/contacts?page=2&page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data       []model.Contact `json:"data"`
		Pagination map[string]int  `json:"pagination"`
	}
	decodeBody(t, w, &resp)
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 3, resp.Pagination["total_count"])
	assert.Equal(t, 2, resp.Pagination["total_pages"])
}

func TestDuplicateTag(t *testing.T) {
	f := newFixture()

	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/tags", map[string]any{"name": "vip"}).Code)
	w := f.do(t, http.MethodPost, "/tags", map[string]any{"name": "vip"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCallsPerChannel(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodPost, "/calls/short", map[string]string{"caller": "254700", "sr_number": "22333", "keyword": "JOIN"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, f.calls.Count(model.ChannelShortCode))
	assert.Equal(t, 0, f.calls.Count(model.ChannelLongCode))

	w = f.do(t, http.MethodGet, "/calls/short", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/calls/fax", nil).Code)
}

func TestGatewaySettingsCurrent(t *testing.T) {
	f := newFixture()

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/gateways/long/settings/current", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/gateways/ivr/settings", map[string]any{}).Code)

	body := map[string]any{"user_name": "acme", "password": "secret", "number_id": "254711", "website": "https://gw.example"}
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/gateways/long/settings", body).Code)

	w := f.do(t, http.MethodGet, "/gateways/long/settings/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var s model.GatewaySettings
	decodeBody(t, w, &s)
	assert.Equal(t, "acme", s.UserName)
}
