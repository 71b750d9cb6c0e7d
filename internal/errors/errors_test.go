package appErrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestFromPQ(t *testing.T) {
	dup := FromPQ("ivr.tag", &pq.Error{Code: "23505", Constraint: "ivr_tag_name_uniq", Detail: "Key (name)=(VIP) already exists."})
	assert.True(t, IsDuplicateKey(dup))
	assert.Contains(t, dup.Error(), "ivr_tag_name_uniq")

	missing := FromPQ("ivr.contact", fmt.Errorf("insert contact: %w", &pq.Error{Code: "23502", Column: "email"}))
	var m *ErrMissingRequiredField
	if assert.True(t, errors.As(missing, &m)) {
		assert.Equal(t, "email", m.Field)
	}

	ref := FromPQ("ivr.contact", &pq.Error{Code: "23503", Constraint: "ivr_contact_list_rel_list_id_fkey"})
	var r *ErrInvalidReference
	assert.True(t, errors.As(ref, &r))

	other := &pq.Error{Code: "42P01"}
	assert.Equal(t, error(other), FromPQ("ivr.tag", other))

	plain := errors.New("boom")
	assert.Equal(t, plain, FromPQ("ivr.tag", plain))
}

func TestNotFound(t *testing.T) {
	err := fmt.Errorf("get: %w", NewNotFound("ivr.list", 7))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "get: ivr.list with ID 7 not found", err.Error())
	assert.False(t, IsNotFound(errors.New("x")))
}
