// Package schema describes the persisted models: their table, default order
// and required fields. A Registry is built once at startup and passed to the
// repositories and services that need it.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/unclebandit/ivr-backend/internal/model"
)

type Model struct {
	Name        string
	Table       string
	Order       string
	Required    []string
	Description string
}

// Registry is not safe for concurrent mutation; register everything before
// handing it out.
type Registry struct {
	models map[string]Model
}

func NewRegistry() *Registry {
	return &Registry{models: make(map[string]Model)}
}

func (r *Registry) Register(m Model) error {
	if m.Name == "" || m.Table == "" {
		return fmt.Errorf("schema: model name and table are required")
	}
	if _, exists := r.models[m.Name]; exists {
		return fmt.Errorf("schema: model %q already registered", m.Name)
	}
	r.models[m.Name] = m
	return nil
}

func (r *Registry) Lookup(name string) (Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

// MustLookup panics on unknown models. Only use it for names known at compile time.
func (r *Registry) MustLookup(name string) Model {
	m, ok := r.models[name]
	if !ok {
		panic(fmt.Sprintf("schema: unknown model %q", name))
	}
	return m
}

func (r *Registry) Models() []Model {
	out := make([]Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Missing returns the required fields of a create payload that are absent or blank.
func (r *Registry) Missing(name string, values map[string]any) []string {
	m, ok := r.models[name]
	if !ok {
		return nil
	}
	var missing []string
	for _, f := range m.Required {
		v, present := values[f]
		if !present || blank(v) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Blank returns the required fields a write payload sets to a blank value.
func (r *Registry) Blank(name string, values map[string]any) []string {
	m, ok := r.models[name]
	if !ok {
		return nil
	}
	var blanks []string
	for _, f := range m.Required {
		if v, present := values[f]; present && blank(v) {
			blanks = append(blanks, f)
		}
	}
	return blanks
}

func blank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

var (
	callRequired     = []string{}
	settingsRequired = []string{"user_name", "password", "number_id", "website"}
	apisRequired     = []string{"name", "api", "model"}
)

// NewDefaultRegistry registers every model the service persists.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	models := []Model{
		{Name: "ivr.tag", Table: "ivr_tag", Order: "name", Required: []string{"name"}, Description: "IVR Tag"},
		{Name: "ivr.list", Table: "ivr_list", Order: "name", Required: []string{"name"}, Description: "Ivr List"},
		{Name: "ivr.contact", Table: "ivr_contact", Order: "email", Required: []string{"email"}, Description: "IVR Agents Contact"},
		{Name: "ivr.settings", Table: "ivr_settings", Order: "app_description", Description: "Settings", Required: []string{
			"app_description", "organisation_name", "category", "channel", "access_key",
			"authorization_key", "website", "client_key", "client_secret",
		}},
	}
	descriptions := map[model.Channel]string{
		model.ChannelIVR:        "Call",
		model.ChannelMissedCall: "Missed Call",
		model.ChannelShortCode:  "Short Code",
		model.ChannelLongCode:   "Long Code",
	}
	for _, c := range model.Channels {
		models = append(models, Model{
			Name: c.CallModel(), Table: string(c) + "_call", Order: "create_date",
			Required: callRequired, Description: descriptions[c] + " Log",
		})
		if !c.HasGateway() {
			continue
		}
		models = append(models,
			Model{Name: c.SettingsModel(), Table: string(c) + "_settings", Order: "user_name", Required: settingsRequired, Description: "Settings"},
			Model{Name: c.APIsModel(), Table: string(c) + "_apis", Order: "create_date", Required: apisRequired, Description: descriptions[c] + " API"},
		)
	}
	for _, m := range models {
		if err := r.Register(m); err != nil {
			panic(err)
		}
	}
	return r
}
