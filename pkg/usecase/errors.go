package usecase

import "errors"

// Sentinel errors for the use case layer
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidRecord        = errors.New("invalid interaction record")
)

// Context keys for error values
const (
	ConversationIDKey = "conversation_id"
)
