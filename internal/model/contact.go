// internal/model/contact.go
package model

import (
	"database/sql"
	"time"
)

// Contact is a lightweight campaign recipient. It holds only a name and an
// email so that large lists don't have to live in a partner table.
type Contact struct {
	ID                 int64      `db:"id" json:"id"`
	Name               string     `db:"name" json:"name"`
	CompanyName        string     `db:"company_name" json:"company_name"`
	Title              string     `db:"title" json:"title"`
	Email              string     `db:"email" json:"email"`
	Country            string     `db:"country" json:"country"`
	OptOut             bool       `db:"opt_out" json:"opt_out"`
	UnsubscriptionDate *time.Time `db:"unsubscription_date" json:"unsubscription_date"`
	MessageBounce      int        `db:"message_bounce" json:"message_bounce"`
	CreateDate         time.Time  `db:"create_date" json:"create_date"`
	ListIDs            []int64    `db:"-" json:"list_ids"`
	TagIDs             []int64    `db:"-" json:"tag_ids"`
}

// Label is the display name of a contact. Contacts are named by email.
func (c Contact) Label() string { return c.Email }

// ContactValues is a create/write payload. A nil field is a key that is absent
// from the payload and must be left untouched.
type ContactValues struct {
	Name          *string `json:"name,omitempty"`
	CompanyName   *string `json:"company_name,omitempty"`
	Title         *string `json:"title,omitempty"`
	Email         *string `json:"email,omitempty"`
	Country       *string `json:"country,omitempty"`
	OptOut        *bool   `json:"opt_out,omitempty"`
	MessageBounce *int    `json:"message_bounce,omitempty"`

	// ListIDs replaces the contact's list memberships; LinkListIDs adds to them.
	ListIDs     *[]int64 `json:"list_ids,omitempty"`
	LinkListIDs []int64  `json:"link_list_ids,omitempty"`
	TagIDs      *[]int64 `json:"tag_ids,omitempty"`

	// Set by write hooks only. Valid=false clears the column.
	UnsubscriptionDate *sql.NullTime `json:"-"`
}

// Columns returns the scalar columns present in the payload.
func (v ContactValues) Columns() map[string]any {
	cols := map[string]any{}
	if v.Name != nil {
		cols["name"] = *v.Name
	}
	if v.CompanyName != nil {
		cols["company_name"] = *v.CompanyName
	}
	if v.Title != nil {
		cols["title"] = *v.Title
	}
	if v.Email != nil {
		cols["email"] = *v.Email
	}
	if v.Country != nil {
		cols["country"] = *v.Country
	}
	if v.OptOut != nil {
		cols["opt_out"] = *v.OptOut
	}
	if v.MessageBounce != nil {
		cols["message_bounce"] = *v.MessageBounce
	}
	if v.UnsubscriptionDate != nil {
		if v.UnsubscriptionDate.Valid {
			cols["unsubscription_date"] = v.UnsubscriptionDate.Time
		} else {
			cols["unsubscription_date"] = nil
		}
	}
	return cols
}

// Recipient tells the notification subsystem where mail about a record goes.
type Recipient struct {
	PartnerIDs []int64 `json:"partner_ids"`
	EmailTo    string  `json:"email_to"`
	EmailCC    bool    `json:"email_cc"`
}

// DefaultRecipients maps each contact to a recipient addressed to its email.
func DefaultRecipients(contacts []Contact) map[int64]Recipient {
	out := make(map[int64]Recipient, len(contacts))
	for _, c := range contacts {
		out[c.ID] = Recipient{PartnerIDs: []int64{}, EmailTo: c.Email, EmailCC: false}
	}
	return out
}
