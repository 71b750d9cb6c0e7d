// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/ivr-backend/internal/app"
	"github.com/unclebandit/ivr-backend/internal/config"
	"github.com/unclebandit/ivr-backend/internal/controller"
	"github.com/unclebandit/ivr-backend/internal/db"
	"github.com/unclebandit/ivr-backend/internal/handler"
	"github.com/unclebandit/ivr-backend/internal/logging"
	"github.com/unclebandit/ivr-backend/internal/queue"
	"github.com/unclebandit/ivr-backend/internal/router"
	"github.com/unclebandit/ivr-backend/internal/service"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("❌ Failed to load config")
	}
	log := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("❌ Failed to connect to database")
	}
	defer database.Close()

	if cfg.Database.MigrateOnStart {
		if err := db.MigrateUp(database.DB); err != nil {
			log.WithError(err).Fatal("❌ Failed to apply migrations")
		}
		log.Info("✅ Migrations applied")
	}

	rdb := app.OpenRedis(ctx, cfg.Redis, log)
	if rdb != nil {
		defer rdb.Close()
	}

	svc := app.NewServices(database, rdb, cfg, log)

	q, err := openQueue(cfg, svc, log)
	if err != nil {
		log.WithError(err).Fatal("❌ Failed to open queue")
	}
	defer q.Close()

	r := router.New(router.Deps{
		Contacts:       &controller.ContactController{ContactService: svc.Contacts, Log: log},
		Lists:          &controller.ListController{ListService: svc.Lists, ContactService: svc.Contacts, Log: log},
		Tags:           &controller.TagController{TagService: svc.Tags, Log: log},
		Calls:          &controller.CallController{CallService: svc.Calls, Log: log},
		Settings:       &controller.SettingsController{SettingsService: svc.Settings, Log: log},
		Webhooks:       handler.NewWebhookHandler(q, log),
		Limiter:        handler.NewRateLimiter(cfg.Webhook.RatePerSecond, cfg.Webhook.Burst),
		Ping:           database.PingContext,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		TrustProxy:     cfg.Server.TrustProxy,
		Log:            log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("🚀 Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("❌ Server failed")
		}
	}()

	<-ctx.Done()
	log.Info("🛑 Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("❌ Graceful shutdown failed")
	}
}

// openQueue returns the call event transport. With the memory driver the
// consumer runs in this process; with amqp it runs in cmd/worker.
func openQueue(cfg *config.Config, svc *app.Services, log logrus.FieldLogger) (queue.Queue, error) {
	if cfg.Queue.Driver == "amqp" {
		q, err := queue.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Prefetch, cfg.Queue.MaxRetries, log)
		if err != nil {
			return nil, err
		}
		return q, nil
	}

	q := queue.NewInMemoryQueue(log, cfg.Queue.MaxRetries, time.Second)
	worker := &service.CallEventWorker{Calls: svc.Calls, Log: log}
	if err := worker.Subscribe(q); err != nil {
		return nil, err
	}
	return q, nil
}
