// cmd/worker/main.go
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
	"github.com/unclebandit/ivr-backend/internal/db"
	"github.com/unclebandit/ivr-backend/internal/logging"
	"github.com/unclebandit/ivr-backend/internal/metrics"
	"github.com/unclebandit/ivr-backend/internal/queue"
	"github.com/unclebandit/ivr-backend/internal/service"
)

// The worker consumes call events from RabbitMQ and runs the gateway
// credential expiry check on a cron schedule.
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

	rdb := app.OpenRedis(ctx, cfg.Redis, log)
	if rdb != nil {
		defer rdb.Close()
	}
	svc := app.NewServices(database, rdb, cfg, log)

	q, err := queue.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Prefetch, cfg.Queue.MaxRetries, log)
	if err != nil {
		log.WithError(err).Fatal("❌ Failed to connect to RabbitMQ")
	}
	defer q.Close()

	worker := &service.CallEventWorker{Calls: svc.Calls, Log: log}
	if err := worker.Subscribe(q); err != nil {
		log.WithError(err).Fatal("❌ Failed to register consumer")
	}
	log.WithField("queue", queue.TopicCallEvents).Info("👷 Worker started, waiting for call events")

	watcher := &service.ExpiryWatcher{Settings: svc.Settings, Window: cfg.Expiry.Window(), Log: log}
	if err := watcher.Start(cfg.Expiry.Schedule); err != nil {
		log.WithError(err).Fatal("❌ Failed to schedule expiry check")
	}
	defer watcher.Stop()

	var metricsSrv *http.Server
	if cfg.Worker.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{Addr: cfg.Worker.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("❌ Metrics server failed")
			}
		}()
	}

	<-ctx.Done()
	log.Info("🛑 Worker shutting down")
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}
