package service

import (
	"database/sql"
	"strings"
	"time"

	appErrors "github.com/unclebandit/ivr-backend/internal/errors"
	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/schema"
)

type Operation int

const (
	OpCreate Operation = iota
	OpWrite
)

func (op Operation) String() string {
	if op == OpCreate {
		return "create"
	}
	return "write"
}

// ContactHook transforms a contact payload before it is persisted. Hooks run
// in order and see the output of the previous one; an error aborts the write.
type ContactHook func(op Operation, now time.Time, v model.ContactValues) (model.ContactValues, error)

// DefaultContactHooks returns the hooks every contact write goes through.
func DefaultContactHooks(reg *schema.Registry) []ContactHook {
	return []ContactHook{
		requireFields(reg, "ivr.contact"),
		stampUnsubscription,
		normalizeEmail,
	}
}

// requireFields rejects creates missing a required field, and writes that
// blank one out.
func requireFields(reg *schema.Registry, modelName string) ContactHook {
	return func(op Operation, _ time.Time, v model.ContactValues) (model.ContactValues, error) {
		cols := v.Columns()
		var bad []string
		if op == OpCreate {
			bad = reg.Missing(modelName, cols)
		} else {
			bad = reg.Blank(modelName, cols)
		}
		if len(bad) > 0 {
			return v, appErrors.NewMissingRequiredField(modelName, bad[0])
		}
		return v, nil
	}
}

// stampUnsubscription keeps unsubscription_date in step with opt_out: set to
// now when opting out, cleared when opting back in. Payloads without opt_out
// are left alone.
func stampUnsubscription(_ Operation, now time.Time, v model.ContactValues) (model.ContactValues, error) {
	if v.OptOut == nil {
		return v, nil
	}
	if *v.OptOut {
		v.UnsubscriptionDate = &sql.NullTime{Time: now, Valid: true}
	} else {
		v.UnsubscriptionDate = &sql.NullTime{}
	}
	return v, nil
}

func normalizeEmail(_ Operation, _ time.Time, v model.ContactValues) (model.ContactValues, error) {
	if v.Email != nil {
		email := strings.TrimSpace(*v.Email)
		v.Email = &email
	}
	return v, nil
}
