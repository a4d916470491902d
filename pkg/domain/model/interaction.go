package model

import (
	"strings"
	"time"

	"github.com/goldenoak/threadline/pkg/domain/types"
)

// PlaceholderContent is substituted when a record arrives with no usable
// messages so downstream code never handles an empty list.
const PlaceholderContent = "(no messages)"

// Interaction represents one normalized conversation/session from a single
// channel. It is the canonical form produced by the engine's normalizer;
// raw records from the store are untyped maps until they pass through it.
type Interaction struct {
	ConversationID types.ConversationID `json:"conversation_id"`
	Channel        types.Channel        `json:"channel"`
	Source         types.Source         `json:"source"`

	CustomerID string `json:"customer_id,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	SessionID  string `json:"session_id,omitempty"`

	// EmailHint is an email-like substring scanned from message bodies.
	// It is a weaker signal than an explicit email and is only used for
	// identity resolution when no other identifier is present.
	EmailHint string `json:"-"`

	IdentityTokens []types.IdentityToken `json:"identity_tokens"`

	Messages  []Message `json:"messages"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	// VoiceBooking marks a voice-originated scheduling event. Voice
	// transcripts are too noisy for keyword matching, so the classifier
	// forces Appointment when this is set.
	VoiceBooking bool `json:"voice_booking,omitempty"`

	IntentKey   types.IntentKey `json:"intent_key"`
	IntentTitle string          `json:"intent_title"`

	ExplicitCaseKey types.CaseKey `json:"explicit_case_key,omitempty"`

	CustomerKey types.CustomerKey `json:"customer_key"`
	CaseKey     types.CaseKey     `json:"case_key"`
}

// MessageCount returns the number of messages in the interaction
func (x *Interaction) MessageCount() int {
	return len(x.Messages)
}

// Preview returns the latest user-authored snippet of the interaction,
// truncated to maxLen runes. It falls back to the last message of any role
// when the customer never wrote anything.
func (x *Interaction) Preview(maxLen int) string {
	var content string
	for i := len(x.Messages) - 1; i >= 0; i-- {
		if x.Messages[i].IsUserAuthored() {
			content = x.Messages[i].Content
			break
		}
	}
	if content == "" && len(x.Messages) > 0 {
		content = x.Messages[len(x.Messages)-1].Content
	}

	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if maxLen > 0 && len(runes) > maxLen {
		return string(runes[:maxLen-1]) + "…"
	}
	return content
}

// TranscriptForClassification concatenates all user/system message bodies.
// Assistant replies are excluded so canned bot phrasing does not drive the
// intent classification.
func (x *Interaction) TranscriptForClassification() string {
	var sb strings.Builder
	for _, msg := range x.Messages {
		if msg.Role == RoleAssistant {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(msg.Content)
	}
	return sb.String()
}
