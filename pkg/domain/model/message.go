package model

import "time"

// Message roles as reported by the producing channels
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message represents one message within an interaction record
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	MediaURL  string    `json:"media_url,omitempty"`
}

// IsUserAuthored reports whether the message was written by the customer
func (m Message) IsUserAuthored() bool {
	return m.Role == RoleUser
}
