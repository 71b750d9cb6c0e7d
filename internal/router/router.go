package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/ivr-backend/internal/controller"
	"github.com/unclebandit/ivr-backend/internal/handler"
	"github.com/unclebandit/ivr-backend/internal/metrics"
)

// Deps holds everything the HTTP surface is built from.
type Deps struct {
	Contacts *controller.ContactController
	Lists    *controller.ListController
	Tags     *controller.TagController
	Calls    *controller.CallController
	Settings *controller.SettingsController
	Webhooks *handler.WebhookHandler
	Limiter  *handler.RateLimiter

	// Ping backs /health. Nil reports healthy.
	Ping           func(ctx context.Context) error
	AllowedOrigins []string
	// TrustProxy enables RealIP. Off, RemoteAddr is the TCP peer.
	TrustProxy bool
	Log            logrus.FieldLogger
}

func New(d Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", health(d.Ping))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/contacts", func(r chi.Router) {
		r.Get("/", d.Contacts.ListContacts)
		r.Post("/", d.Contacts.CreateContact)
		r.Patch("/", d.Contacts.BulkUpdateContacts)
		r.Post("/name-create", d.Contacts.NameCreate)
		r.Post("/recipients", d.Contacts.DefaultRecipients)
		r.Get("/{id}", d.Contacts.GetContact)
		r.Patch("/{id}", d.Contacts.UpdateContact)
		r.Delete("/{id}", d.Contacts.DeleteContact)
	})

	r.Route("/lists", func(r chi.Router) {
		r.Get("/", d.Lists.ListLists)
		r.Post("/", d.Lists.CreateList)
		r.Get("/{id}", d.Lists.GetList)
		r.Patch("/{id}", d.Lists.UpdateList)
		r.Delete("/{id}", d.Lists.DeleteList)
		r.Post("/{id}/contacts", d.Lists.AddContact)
	})

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", d.Tags.ListTags)
		r.Post("/", d.Tags.CreateTag)
		r.Delete("/{id}", d.Tags.DeleteTag)
	})

	r.Route("/calls/{channel}", func(r chi.Router) {
		r.Get("/", d.Calls.ListCalls)
		r.Post("/", d.Calls.CreateCall)
		r.Get("/{id}", d.Calls.GetCall)
		r.Delete("/{id}", d.Calls.DeleteCall)
	})

	r.Route("/settings/ivr", func(r chi.Router) {
		r.Get("/", d.Settings.ListIVR)
		r.Post("/", d.Settings.CreateIVR)
		r.Get("/{id}", d.Settings.GetIVR)
		r.Put("/{id}", d.Settings.UpdateIVR)
		r.Delete("/{id}", d.Settings.DeleteIVR)
	})

	r.Route("/gateways/{channel}", func(r chi.Router) {
		r.Get("/settings", d.Settings.ListGateway)
		r.Post("/settings", d.Settings.CreateGateway)
		r.Get("/settings/current", d.Settings.CurrentGateway)
		r.Get("/settings/{id}", d.Settings.GetGateway)
		r.Put("/settings/{id}", d.Settings.UpdateGateway)
		r.Delete("/settings/{id}", d.Settings.DeleteGateway)

		r.Get("/apis", d.Settings.ListAPIs)
		r.Post("/apis", d.Settings.CreateAPI)
		r.Get("/apis/{id}", d.Settings.GetAPI)
		r.Delete("/apis/{id}", d.Settings.DeleteAPI)
	})

	if d.Webhooks != nil {
		r.With(d.Limiter.Middleware).Post("/webhooks/{channel}", d.Webhooks.Receive)
	}

	return r
}

func health(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// requestLogger logs one line per request through logrus.
func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if log == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Info("HTTP request")
		})
	}
}
