package types

import "strings"

// Source represents the fine-grained origin of an interaction record.
// It is the finer discriminator of Channel: both sms and mms map to the
// sms channel.
type Source string

const (
	SourceWebChat  Source = "web_chat"
	SourceSMS      Source = "sms"
	SourceMMS      Source = "mms"
	SourceVoice    Source = "voice"
	SourceAppraise Source = "appraise"
	SourceUnknown  Source = "unknown"
)

// AllSources returns all valid sources
func AllSources() []Source {
	return []Source{
		SourceWebChat,
		SourceSMS,
		SourceMMS,
		SourceVoice,
		SourceAppraise,
		SourceUnknown,
	}
}

// IsValid checks if the source is valid
func (s Source) IsValid() bool {
	switch s {
	case SourceWebChat,
		SourceSMS,
		SourceMMS,
		SourceVoice,
		SourceAppraise,
		SourceUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the source
func (s Source) String() string {
	return string(s)
}

// Channel returns the coarse channel the source belongs to
func (s Source) Channel() Channel {
	switch s {
	case SourceSMS, SourceMMS:
		return ChannelSMS
	case SourceVoice:
		return ChannelVoice
	case SourceAppraise:
		return ChannelAppraise
	default:
		return ChannelWeb
	}
}

// SourceFromChannel maps a channel to its default source
func SourceFromChannel(c Channel) Source {
	switch c {
	case ChannelSMS:
		return SourceSMS
	case ChannelVoice:
		return SourceVoice
	case ChannelAppraise:
		return SourceAppraise
	case ChannelWeb:
		return SourceWebChat
	default:
		return SourceUnknown
	}
}

// InferSourceFromConversationID infers a source from well-known conversation
// ID prefixes used by the producing channels.
func InferSourceFromConversationID(conversationID string) Source {
	switch {
	case strings.HasPrefix(conversationID, "sms_"):
		return SourceSMS
	case strings.HasPrefix(conversationID, "voice_booking_"):
		return SourceVoice
	case strings.HasPrefix(conversationID, "appraise_"):
		return SourceAppraise
	default:
		return SourceUnknown
	}
}
