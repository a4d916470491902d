package types

import "fmt"

// Channel represents the coarse communication channel of an interaction
type Channel string

const (
	ChannelWeb      Channel = "web"
	ChannelSMS      Channel = "sms"
	ChannelVoice    Channel = "voice"
	ChannelAppraise Channel = "appraise"
)

// AllChannels returns all valid channels
func AllChannels() []Channel {
	return []Channel{
		ChannelWeb,
		ChannelSMS,
		ChannelVoice,
		ChannelAppraise,
	}
}

// IsValid checks if the channel is valid
func (c Channel) IsValid() bool {
	switch c {
	case ChannelWeb,
		ChannelSMS,
		ChannelVoice,
		ChannelAppraise:
		return true
	default:
		return false
	}
}

// String returns the string representation of the channel
func (c Channel) String() string {
	return string(c)
}

// ParseChannel parses a string into a Channel
func ParseChannel(s string) (Channel, error) {
	ch := Channel(s)
	if !ch.IsValid() {
		return "", fmt.Errorf("invalid channel: %s", s)
	}
	return ch, nil
}
