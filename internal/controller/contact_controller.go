package controller

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/service"
)

type ContactController struct {
	ContactService *service.ContactService
	Log            logrus.FieldLogger
}

func (c *ContactController) ListContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var listID int64
	if n := queryInt(r, "list_id"); n > 0 {
		listID = int64(n)
	}
	contacts, pagination, err := c.ContactService.Search(r.Context(), service.ContactSearch{
		Query:    q.Get("q"),
		ListID:   listID,
		OptOut:   queryBool(r, "opt_out"),
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "page_size"),
	})
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       contacts,
		"pagination": pagination,
	})
}

func (c *ContactController) CreateContact(w http.ResponseWriter, r *http.Request) {
	var body model.ContactValues
	if !decode(w, r, &body) {
		return
	}
	contact, err := c.ContactService.Create(r.Context(), body)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

func (c *ContactController) GetContact(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	contact, err := c.ContactService.Get(r.Context(), id)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// UpdateContact applies a partial payload; absent keys are left untouched.
func (c *ContactController) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body model.ContactValues
	if !decode(w, r, &body) {
		return
	}
	if err := c.ContactService.Write(r.Context(), []int64{id}, body); err != nil {
		writeError(w, c.Log, err)
		return
	}
	contact, err := c.ContactService.Get(r.Context(), id)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// BulkUpdateContacts writes the same values to every contact in ids.
func (c *ContactController) BulkUpdateContacts(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs    []int64             `json:"ids"`
		Values model.ContactValues `json:"values"`
	}
	if !decode(w, r, &body) {
		return
	}
	if len(body.IDs) == 0 {
		badRequest(w, "ids is required")
		return
	}
	if err := c.ContactService.Write(r.Context(), body.IDs, body.Values); err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"updated": len(body.IDs)})
}

func (c *ContactController) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := c.ContactService.Delete(r.Context(), id); err != nil {
		writeError(w, c.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *ContactController) NameCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &body) {
		return
	}
	res, err := c.ContactService.NameCreate(r.Context(), body.Name)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (c *ContactController) DefaultRecipients(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []int64 `json:"ids"`
	}
	if !decode(w, r, &body) {
		return
	}
	recipients, err := c.ContactService.DefaultRecipients(r.Context(), body.IDs)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, recipients)
}
