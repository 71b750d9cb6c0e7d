package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/queue"
)

const maxWebhookBody = 64 << 10

// Gateways don't agree on field names; each call column accepts several aliases.
var fieldAliases = map[string][]string{
	"caller":        {"caller", "from", "msisdn", "phone"},
	"sr_number":     {"sr_number", "to", "number", "shortcode"},
	"keyword":       {"keyword", "text", "message"},
	"click_to_call": {"click_to_call", "ctc"},
	"action":        {"action"},
	"call_status":   {"call_status", "status"},
	"duration":      {"duration", "call_duration"},
	"recordings":    {"recordings", "recording_url"},
	"download":      {"download", "download_url"},
}

// WebhookHandler accepts gateway callbacks and queues them for the call event
// worker. Nothing is written to the database on the request path.
type WebhookHandler struct {
	Queue queue.Queue
	Log   logrus.FieldLogger
	Now   func() time.Time
}

func NewWebhookHandler(q queue.Queue, log logrus.FieldLogger) *WebhookHandler {
	return &WebhookHandler{Queue: q, Log: log, Now: time.Now}
}

// Receive handles POST /webhooks/{channel}. JSON and form-encoded bodies are
// both accepted.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "channel")
	channel, ok := model.ParseChannel(raw)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown channel: " + raw})
		return
	}

	lookup, err := fieldLookup(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	// Call logs have no required columns; a sparse callback is stored as sent.
	call := callFromFields(lookup)

	ev := model.CallEvent{
		EventID:    uuid.NewString(),
		Channel:    channel,
		ReceivedAt: h.Now().UTC(),
		Call:       call,
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		h.Log.WithError(err).Error("❌ Failed to encode call event")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if err := h.Queue.Publish(r.Context(), queue.TopicCallEvents, payload); err != nil {
		h.Log.WithFields(logrus.Fields{"event_id": ev.EventID, "channel": channel}).WithError(err).Error("❌ Failed to queue call event")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "queue unavailable"})
		return
	}

	h.Log.WithFields(logrus.Fields{"event_id": ev.EventID, "channel": channel}).Debug("📥 Call event queued")
	writeJSON(w, http.StatusAccepted, map[string]string{"event_id": ev.EventID, "status": "queued"})
}

type lookupFunc func(key string) string

func fieldLookup(r *http.Request) (lookupFunc, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		r.Body = http.MaxBytesReader(nil, r.Body, maxWebhookBody)
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.PostForm.Get, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, errInvalidJSON
	}
	doc := gjson.ParseBytes(body)
	return func(key string) string {
		v := doc.Get(key)
		if !v.Exists() {
			return ""
		}
		return v.String()
	}, nil
}

func callFromFields(lookup lookupFunc) model.CallLog {
	get := func(column string) string {
		for _, alias := range fieldAliases[column] {
			if v := strings.TrimSpace(lookup(alias)); v != "" {
				return v
			}
		}
		return ""
	}
	return model.CallLog{
		Caller:      get("caller"),
		SrNumber:    get("sr_number"),
		Keyword:     get("keyword"),
		ClickToCall: get("click_to_call"),
		Action:      get("action"),
		CallStatus:  get("call_status"),
		Duration:    get("duration"),
		Recordings:  get("recordings"),
		Download:    get("download"),
	}
}
