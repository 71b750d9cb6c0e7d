package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/ivr-backend/internal/metrics"
	"github.com/unclebandit/ivr-backend/internal/model"
)

// ExpiryWatcher periodically reports gateway credentials close to their expiry date.
type ExpiryWatcher struct {
	Settings *SettingsService
	Window   time.Duration
	Log      logrus.FieldLogger

	cron *cron.Cron
}

// Start schedules Check using a cron spec such as "@every 1h".
func (w *ExpiryWatcher) Start(schedule string) error {
	w.cron = cron.New()
	if _, err := w.cron.AddFunc(schedule, func() {
		if _, err := w.Check(context.Background()); err != nil {
			w.Log.WithError(err).Error("Expiry check failed")
		}
	}); err != nil {
		return err
	}
	w.cron.Start()
	w.Log.WithField("schedule", schedule).Info("⏰ Expiry watcher started")
	return nil
}

// Stop waits for a running check to finish.
func (w *ExpiryWatcher) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
}

// Check logs every expiring credential and updates the per-channel gauge.
// It returns the number of expiring rows.
func (w *ExpiryWatcher) Check(ctx context.Context) (int, error) {
	rows, err := w.Settings.Expiring(ctx, w.Window)
	if err != nil {
		return 0, err
	}

	counts := make(map[model.Channel]int, len(model.GatewayChannels))
	for _, s := range rows {
		counts[s.Channel]++
		w.Log.WithFields(logrus.Fields{
			"channel":   s.Channel,
			"settings":  s.ID,
			"user_name": s.UserName,
			"ex_date":   s.ExDate,
		}).Warn("⚠️ Gateway credentials expiring")
	}
	for _, c := range model.GatewayChannels {
		metrics.SettingsExpiring.WithLabelValues(string(c)).Set(float64(counts[c]))
	}
	return len(rows), nil
}
