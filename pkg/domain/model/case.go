package model

import (
	"time"

	"github.com/goldenoak/threadline/pkg/domain/types"
)

// Case represents a bounded thread of same-customer, same-intent
// interactions within a time window, or one explicitly declared by the
// producing channel. Cases are derived on every aggregation call and are
// never persisted.
type Case struct {
	CaseKey           types.CaseKey  `json:"case_key"`
	CaseTitle         string         `json:"case_title"`
	Sources           []types.Source `json:"sources"`
	FirstActivityAt   time.Time      `json:"first_activity_at"`
	LastActivityAt    time.Time      `json:"last_activity_at"`
	MessageCount      int            `json:"message_count"`
	ConversationCount int            `json:"conversation_count"`
	Preview           string         `json:"preview"`

	// Conversations are sorted newest-first
	Conversations []*Interaction `json:"conversations"`
}

// CustomerGroup represents one resolved customer cluster with its cases.
// It is the output contract served to the dashboard.
type CustomerGroup struct {
	CustomerKey   types.CustomerKey `json:"customer_key"`
	CustomerLabel string            `json:"customer_label"`
	CustomerID    string            `json:"customer_id,omitempty"`
	Phone         string            `json:"phone,omitempty"`

	SourceCount       int `json:"source_count"`
	MessageCount      int `json:"message_count"`
	ConversationCount int `json:"conversation_count"`

	FirstActivityAt time.Time      `json:"first_activity_at"`
	LastActivityAt  time.Time      `json:"last_activity_at"`
	Sources         []types.Source `json:"sources"`

	// Cases are sorted newest-activity-first
	Cases []*Case `json:"cases"`
}
