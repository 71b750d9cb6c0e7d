// internal/model/call.go
package model

import "time"

// CallLog is one gateway event. The struct is the union of all channel columns;
// CallColumns says which of them a channel's table actually has.
type CallLog struct {
	ID          int64     `db:"id" json:"id"`
	Channel     Channel   `db:"-" json:"channel"`
	CreateDate  time.Time `db:"create_date" json:"create_date"`
	Caller      string    `db:"caller" json:"caller"`
	SrNumber    string    `db:"sr_number" json:"sr_number"`
	Keyword     string    `db:"keyword" json:"keyword,omitempty"`
	ClickToCall string    `db:"click_to_call" json:"click_to_call,omitempty"`
	Action      string    `db:"action" json:"action,omitempty"`
	CallStatus  string    `db:"call_status" json:"call_status,omitempty"`
	Duration    string    `db:"duration" json:"duration,omitempty"`
	Recordings  string    `db:"recordings" json:"recordings,omitempty"`
	Download    string    `db:"download" json:"download,omitempty"`
}

var callColumns = map[Channel][]string{
	ChannelIVR:        {"caller", "click_to_call", "sr_number", "action", "call_status", "duration", "recordings", "download"},
	ChannelMissedCall: {"caller", "sr_number"},
	ChannelShortCode:  {"caller", "sr_number", "keyword"},
	ChannelLongCode:   {"caller", "sr_number", "keyword"},
}

func CallColumns(c Channel) []string {
	return callColumns[c]
}

// Columns returns the values for the channel's columns only. A non-zero
// CreateDate is included; otherwise the database default stamps the row.
func (l CallLog) Columns(c Channel) map[string]any {
	all := map[string]any{
		"caller":        l.Caller,
		"sr_number":     l.SrNumber,
		"keyword":       l.Keyword,
		"click_to_call": l.ClickToCall,
		"action":        l.Action,
		"call_status":   l.CallStatus,
		"duration":      l.Duration,
		"recordings":    l.Recordings,
		"download":      l.Download,
	}
	cols := make(map[string]any, len(callColumns[c]))
	for _, name := range callColumns[c] {
		cols[name] = all[name]
	}
	if !l.CreateDate.IsZero() {
		cols["create_date"] = l.CreateDate
	}
	return cols
}

// CallEvent is a gateway webhook queued for asynchronous persistence.
type CallEvent struct {
	EventID    string    `json:"event_id"`
	Channel    Channel   `json:"channel"`
	ReceivedAt time.Time `json:"received_at"`
	Call       CallLog   `json:"call"`
}
