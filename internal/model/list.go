// internal/model/list.go
package model

import "time"

type List struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Active     bool      `db:"active" json:"active"`
	CreateDate time.Time `db:"create_date" json:"create_date"`
	// ContactNbr counts linked contacts that have not opted out. Never stored.
	ContactNbr int `db:"-" json:"contact_nbr"`
}

type ListValues struct {
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

func (v ListValues) Columns() map[string]any {
	cols := map[string]any{}
	if v.Name != nil {
		cols["name"] = *v.Name
	}
	if v.Active != nil {
		cols["active"] = *v.Active
	}
	return cols
}
