package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/ivr-backend/internal/metrics"
	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/repository"
)

// Call log sources, used as a metrics label.
const (
	SourceAPI     = "api"
	SourceWebhook = "webhook"
)

// CallService stores gateway call logs. Logs are append-only.
type CallService struct {
	Repo repository.CallRepositoryInterface
	Log  logrus.FieldLogger
}

// Create stores the call and returns its id.
func (s *CallService) Create(ctx context.Context, channel model.Channel, call model.CallLog, source string) (int64, error) {
	id, err := s.Repo.Create(ctx, channel, call)
	if err != nil {
		return 0, err
	}
	metrics.CallEventsIngested.WithLabelValues(string(channel), source).Inc()
	s.Log.WithFields(logrus.Fields{
		"channel": channel,
		"call_id": id,
		"source":  source,
	}).Debug("📞 Call log stored")
	return id, nil
}

// List fetches call logs with pagination
func (s *CallService) List(ctx context.Context, channel model.Channel, page, pageSize int) ([]model.CallLog, map[string]int, error) {
	page, pageSize, offset := pageWindow(page, pageSize)
	calls, total, err := s.Repo.List(ctx, channel, offset, pageSize)
	if err != nil {
		return nil, nil, err
	}
	return calls, pagination(page, pageSize, total), nil
}

func (s *CallService) Get(ctx context.Context, channel model.Channel, id int64) (*model.CallLog, error) {
	return s.Repo.GetByID(ctx, channel, id)
}

func (s *CallService) Delete(ctx context.Context, channel model.Channel, id int64) error {
	return s.Repo.Delete(ctx, channel, id)
}
