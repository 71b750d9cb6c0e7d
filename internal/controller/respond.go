package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/ivr-backend/internal/errors"
	"github.com/unclebandit/ivr-backend/internal/model"
)

// ErrorResponse is the error envelope of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Code: "bad_request"})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}

func channelParam(w http.ResponseWriter, r *http.Request) (model.Channel, bool) {
	raw := chi.URLParam(r, "channel")
	c, ok := model.ParseChannel(raw)
	if !ok {
		writeError(w, nil, appErrors.NewInvalidChannel(raw))
		return "", false
	}
	return c, true
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// queryBool returns nil when the parameter is absent or not a boolean.
func queryBool(r *http.Request, key string) *bool {
	b, err := strconv.ParseBool(r.URL.Query().Get(key))
	if err != nil {
		return nil
	}
	return &b
}

// writeError maps domain errors onto HTTP statuses. Unknown errors are logged
// and reported as a generic 500.
func writeError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	var (
		notFound  *appErrors.ErrNotFound
		missing   *appErrors.ErrMissingRequiredField
		duplicate *appErrors.ErrDuplicateKey
		reference *appErrors.ErrInvalidReference
		channel   *appErrors.ErrInvalidChannel
	)
	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case errors.As(err, &missing):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "missing_required_field", Details: map[string]string{"field": missing.Field}})
	case errors.As(err, &reference):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "invalid_reference"})
	case errors.As(err, &duplicate):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "duplicate_key", Details: map[string]string{"constraint": duplicate.Constraint}})
	case errors.As(err, &channel):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_channel"})
	default:
		if log != nil {
			log.WithError(err).Error("internal error")
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
