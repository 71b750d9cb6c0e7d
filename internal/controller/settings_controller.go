package controller

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/service"
)

type SettingsController struct {
	SettingsService *service.SettingsService
	Log             logrus.FieldLogger
}

// ====================== IVR settings ======================

func (c *SettingsController) ListIVR(w http.ResponseWriter, r *http.Request) {
	rows, err := c.SettingsService.ListIVR(r.Context())
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": rows})
}

func (c *SettingsController) CreateIVR(w http.ResponseWriter, r *http.Request) {
	var body model.IVRSettings
	if !decode(w, r, &body) {
		return
	}
	s, err := c.SettingsService.CreateIVR(r.Context(), body)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (c *SettingsController) GetIVR(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s, err := c.SettingsService.GetIVR(r.Context(), id)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (c *SettingsController) UpdateIVR(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body model.IVRSettings
	if !decode(w, r, &body) {
		return
	}
	s, err := c.SettingsService.UpdateIVR(r.Context(), id, body)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (c *SettingsController) DeleteIVR(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := c.SettingsService.DeleteIVR(r.Context(), id); err != nil {
		writeError(w, c.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ====================== Gateway settings ======================

func (c *SettingsController) ListGateway(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	rows, err := c.SettingsService.ListGateway(r.Context(), channel)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": rows})
}

func (c *SettingsController) CreateGateway(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	var body model.GatewaySettings
	if !decode(w, r, &body) {
		return
	}
	s, err := c.SettingsService.CreateGateway(r.Context(), channel, body)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (c *SettingsController) CurrentGateway(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	s, err := c.SettingsService.Current(r.Context(), channel)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (c *SettingsController) GetGateway(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	s, err := c.SettingsService.GetGateway(r.Context(), channel, id)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (c *SettingsController) UpdateGateway(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body model.GatewaySettings
	if !decode(w, r, &body) {
		return
	}
	s, err := c.SettingsService.UpdateGateway(r.Context(), channel, id, body)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (c *SettingsController) DeleteGateway(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := c.SettingsService.DeleteGateway(r.Context(), channel, id); err != nil {
		writeError(w, c.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ====================== Gateway APIs ======================

func (c *SettingsController) ListAPIs(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	rows, err := c.SettingsService.ListAPIs(r.Context(), channel)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": rows})
}

func (c *SettingsController) CreateAPI(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	var body model.GatewayAPI
	if !decode(w, r, &body) {
		return
	}
	a, err := c.SettingsService.CreateAPI(r.Context(), channel, body)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (c *SettingsController) GetAPI(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	a, err := c.SettingsService.GetAPI(r.Context(), channel, id)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (c *SettingsController) DeleteAPI(w http.ResponseWriter, r *http.Request) {
	channel, ok := channelParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := c.SettingsService.DeleteAPI(r.Context(), channel, id); err != nil {
		writeError(w, c.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
