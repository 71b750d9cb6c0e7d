// internal/model/settings.go
package model

import "time"

// IVRSettings holds the credentials of the IVR provider app.
type IVRSettings struct {
	ID               int64     `db:"id" json:"id"`
	CreateDate       time.Time `db:"create_date" json:"create_date"`
	AppDescription   string    `db:"app_description" json:"app_description"`
	OrganisationName string    `db:"organisation_name" json:"organisation_name"`
	Category         string    `db:"category" json:"category"`
	Channel          string    `db:"channel" json:"channel"`
	AccessKey        string    `db:"access_key" json:"access_key"`
	AuthorizationKey string    `db:"authorization_key" json:"authorization_key"`
	Website          string    `db:"website" json:"website"`
	ClientKey        string    `db:"client_key" json:"client_key"`
	ClientSecret     string    `db:"client_secret" json:"client_secret"`
}

func (s IVRSettings) Columns() map[string]any {
	return map[string]any{
		"app_description":   s.AppDescription,
		"organisation_name": s.OrganisationName,
		"category":          s.Category,
		"channel":           s.Channel,
		"access_key":        s.AccessKey,
		"authorization_key": s.AuthorizationKey,
		"website":           s.Website,
		"client_key":        s.ClientKey,
		"client_secret":     s.ClientSecret,
	}
}

// GatewaySettings holds the account a missed-call, short-code or long-code
// gateway is reached with.
type GatewaySettings struct {
	ID         int64      `db:"id" json:"id"`
	Channel    Channel    `db:"-" json:"channel"`
	CreateDate time.Time  `db:"create_date" json:"create_date"`
	ExDate     *time.Time `db:"ex_date" json:"ex_date,omitempty"`
	UserName   string     `db:"user_name" json:"user_name"`
	Password   string     `db:"password" json:"password"`
	NumberID   string     `db:"number_id" json:"number_id"`
	Website    string     `db:"website" json:"website"`
}

func (s GatewaySettings) Columns() map[string]any {
	cols := map[string]any{
		"ex_date":   nil,
		"user_name": s.UserName,
		"password":  s.Password,
		"number_id": s.NumberID,
		"website":   s.Website,
	}
	if s.ExDate != nil {
		cols["ex_date"] = *s.ExDate
	}
	return cols
}

// GatewayAPI registers an outbound API endpoint for a gateway channel.
type GatewayAPI struct {
	ID         int64     `db:"id" json:"id"`
	Channel    Channel   `db:"-" json:"channel"`
	CreateDate time.Time `db:"create_date" json:"create_date"`
	Name       string    `db:"name" json:"name"`
	API        string    `db:"api" json:"api"`
	Model      string    `db:"model" json:"model"`
}

func (a GatewayAPI) Columns() map[string]any {
	return map[string]any{"name": a.Name, "api": a.API, "model": a.Model}
}
