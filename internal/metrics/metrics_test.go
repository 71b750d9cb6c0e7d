package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandler_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/contacts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/contacts/{id}", "404"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contacts/42", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/contacts/{id}", "404"))
	assert.Equal(t, before+1, after)
}

func TestHandler_ExposesDomainMetrics(t *testing.T) {
	CallEventsIngested.WithLabelValues("missedcall", "webhook").Inc()
	SettingsExpiring.WithLabelValues("short").Set(2)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `call_events_ingested_total{channel="missedcall",source="webhook"}`))
	assert.True(t, strings.Contains(body, `gateway_settings_expiring{channel="short"} 2`))
}
