package controller

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/service"
)

// CallController serves the per-channel call logs. There is no update route.
type CallController struct {
	CallService *service.CallService
	Log         logrus.FieldLogger
}

func (c *CallController) ListCalls(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	calls, pagination, err := c.CallService.List(r.Context(), channel, queryInt(r, "page"), queryInt(r, "page_size"))
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       calls,
		"pagination": pagination,
	})
}

func (c *CallController) CreateCall(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	var body model.CallLog
	if !decode(w, r, &body) {
		return
	}
	body.CreateDate = time.Time{}
	id, err := c.CallService.Create(r.Context(), channel, body, service.SourceAPI)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	call, err := c.CallService.Get(r.Context(), channel, id)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, call)
}

func (c *CallController) GetCall(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	call, err := c.CallService.Get(r.Context(), channel, id)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, call)
}

func (c *CallController) DeleteCall(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := c.CallService.Delete(r.Context(), channel, id); err != nil {
		writeError(w, c.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
