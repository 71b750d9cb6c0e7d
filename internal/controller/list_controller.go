package controller

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/service"
)

type ListController struct {
	ListService    *service.ListService
	ContactService *service.ContactService
	Log            logrus.FieldLogger
}

// ListLists returns active lists unless ?active=false is given.
func (c *ListController) ListLists(w http.ResponseWriter, r *http.Request) {
	lists, pagination, err := c.ListService.Search(r.Context(), service.ListSearch{
		Query:    r.URL.Query().Get("q"),
		Active:   queryBool(r, "active"),
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "page_size"),
	})
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       lists,
		"pagination": pagination,
	})
}

func (c *ListController) CreateList(w http.ResponseWriter, r *http.Request) {
	var body model.ListValues
	if !decode(w, r, &body) {
		return
	}
	list, err := c.ListService.Create(r.Context(), body)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (c *ListController) GetList(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	list, err := c.ListService.Get(r.Context(), id)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (c *ListController) UpdateList(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body model.ListValues
	if !decode(w, r, &body) {
		return
	}
	list, err := c.ListService.Update(r.Context(), id, body)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (c *ListController) DeleteList(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := c.ListService.Delete(r.Context(), id); err != nil {
		writeError(w, c.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddContact creates a contact from a free-form name and links it to the list.
func (c *ListController) AddContact(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &body) {
		return
	}
	res, err := c.ContactService.AddToList(r.Context(), body.Name, id)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
