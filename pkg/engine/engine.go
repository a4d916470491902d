// Package engine implements the customer-identity resolution and
// conversation-clustering core that powers the unified chat history view.
//
// The engine is a pure, synchronous computation over an in-memory list of
// raw interaction records: it normalizes each record, resolves which records
// belong to the same real-world customer, classifies each interaction's
// intent, groups interactions into time-bounded cases, and composes the
// nested Customer → Case → Conversation view. It performs no I/O, holds no
// state between calls, and is deterministic given the same input set and
// arrival order.
package engine

import "time"

// Case window bounds in hours. The window controls how far apart two
// same-intent interactions may be and still belong to one case.
const (
	DefaultCaseWindowHours = 72
	MinCaseWindowHours     = 1
	MaxCaseWindowHours     = 336
)

// previewMaxLen bounds the user-authored snippet shown on case cards
const previewMaxLen = 140

type config struct {
	windowHours int
	now         func() time.Time
	rules       []Rule
}

// Option configures one aggregation call
type Option func(*config)

// WithCaseWindowHours sets the case window. Values outside [1, 336] are
// clamped rather than rejected.
func WithCaseWindowHours(hours int) Option {
	return func(c *config) {
		c.windowHours = ClampWindowHours(hours)
	}
}

// WithNow overrides the wall-clock fallback used for records with missing
// or unparseable timestamps. Intended for tests.
func WithNow(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// WithRules replaces the built-in intent keyword rules
func WithRules(rules []Rule) Option {
	return func(c *config) {
		if len(rules) > 0 {
			c.rules = rules
		}
	}
}

// ClampWindowHours clamps a case window to [MinCaseWindowHours, MaxCaseWindowHours].
// Zero and negative values fall back to the default.
func ClampWindowHours(hours int) int {
	if hours == 0 {
		return DefaultCaseWindowHours
	}
	if hours < MinCaseWindowHours {
		return MinCaseWindowHours
	}
	if hours > MaxCaseWindowHours {
		return MaxCaseWindowHours
	}
	return hours
}

func newConfig(opts ...Option) *config {
	c := &config{
		windowHours: DefaultCaseWindowHours,
		now:         time.Now,
		rules:       DefaultRules(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *config) window() time.Duration {
	return time.Duration(c.windowHours) * time.Hour
}
