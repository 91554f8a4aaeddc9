package models

// Channel is a delivery medium for alerts
type Channel string

const (
	ChannelSMS  Channel = "sms"
	ChannelChat Channel = "chat"
)

// AllChannels returns every supported delivery channel
func AllChannels() []Channel {
	return []Channel{ChannelSMS, ChannelChat}
}

// Recipient is one plant staff member with channel opt-in flags.
// Records are read-only to the engine; staleness within one cycle
// is acceptable.
type Recipient struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Phone      string `json:"phone,omitempty" yaml:"phone,omitempty"`
	ChatHandle string `json:"chat_handle,omitempty" yaml:"chat_handle,omitempty"`
	OptSMS     bool   `json:"opt_sms" yaml:"opt_sms"`
	OptChat    bool   `json:"opt_chat" yaml:"opt_chat"`
	Active     bool   `json:"active" yaml:"active"`
}

// OptedIn reports whether the recipient accepts alerts on ch
func (r Recipient) OptedIn(ch Channel) bool {
	switch ch {
	case ChannelSMS:
		return r.OptSMS
	case ChannelChat:
		return r.OptChat
	default:
		return false
	}
}

// Address returns the destination address for ch, empty when none is set
func (r Recipient) Address(ch Channel) string {
	switch ch {
	case ChannelSMS:
		return r.Phone
	case ChannelChat:
		return r.ChatHandle
	default:
		return ""
	}
}

// OptedChannels returns every channel the recipient has opted into
func (r Recipient) OptedChannels() []Channel {
	var out []Channel
	for _, ch := range AllChannels() {
		if r.OptedIn(ch) {
			out = append(out, ch)
		}
	}
	return out
}
