// internal/model/channel.go
package model

// Channel identifies a gateway integration. Each channel owns its own call-log
// table; every channel except ivr also carries settings and API rows.
type Channel string

const (
	ChannelIVR        Channel = "ivr"
	ChannelMissedCall Channel = "missedcall"
	ChannelShortCode  Channel = "short"
	ChannelLongCode   Channel = "long"
)

// Channels lists every known channel in a stable order.
var Channels = []Channel{ChannelIVR, ChannelMissedCall, ChannelShortCode, ChannelLongCode}

// GatewayChannels are the channels with gateway settings and API rows.
var GatewayChannels = []Channel{ChannelMissedCall, ChannelShortCode, ChannelLongCode}

func ParseChannel(s string) (Channel, bool) {
	for _, c := range Channels {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// HasGateway reports whether the channel has settings and API tables.
func (c Channel) HasGateway() bool {
	for _, g := range GatewayChannels {
		if g == c {
			return true
		}
	}
	return false
}

func (c Channel) CallModel() string     { return string(c) + ".call" }
func (c Channel) SettingsModel() string { return string(c) + ".settings" }
func (c Channel) APIsModel() string     { return string(c) + ".apis" }
