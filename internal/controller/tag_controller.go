package controller

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/service"
)

type TagController struct {
	TagService *service.TagService
	Log        logrus.FieldLogger
}

func (c *TagController) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := c.TagService.List(r.Context())
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": tags})
}

func (c *TagController) CreateTag(w http.ResponseWriter, r *http.Request) {
	var body model.Tag
	if !decode(w, r, &body) {
		return
	}
	tag, err := c.TagService.Create(r.Context(), body)
	if err != nil {
		writeError(w, c.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (c *TagController) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := c.TagService.Delete(r.Context(), id); err != nil {
		writeError(w, c.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
