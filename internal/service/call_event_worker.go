package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/queue"
)

// CallEventWorker turns queued gateway webhooks into call logs.
type CallEventWorker struct {
	Calls *CallService
	Log   logrus.FieldLogger
}

// Handle is a queue.Handler. Payloads that can't be decoded, or that name an
// unknown channel, are dropped; storage errors are returned so the queue retries.
func (w *CallEventWorker) Handle(ctx context.Context, payload []byte) error {
	var ev model.CallEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return queue.Permanent(fmt.Errorf("decode call event: %w", err))
	}
	channel, ok := model.ParseChannel(string(ev.Channel))
	if !ok {
		return queue.Permanent(fmt.Errorf("call event %s: unknown channel %q", ev.EventID, ev.Channel))
	}

	// The row is dated when the gateway called, not when the queue delivered it.
	call := ev.Call
	call.CreateDate = ev.ReceivedAt
	id, err := w.Calls.Create(ctx, channel, call, SourceWebhook)
	if err != nil {
		w.Log.WithFields(logrus.Fields{"event_id": ev.EventID, "channel": channel}).WithError(err).Warn("⚠️ Failed to store call event")
		return err
	}
	w.Log.WithFields(logrus.Fields{"event_id": ev.EventID, "channel": channel, "call_id": id}).Info("✅ Call event stored")
	return nil
}

// Subscribe registers the worker on the call events topic.
func (w *CallEventWorker) Subscribe(q queue.Queue) error {
	return q.Subscribe(queue.TopicCallEvents, w.Handle)
}
