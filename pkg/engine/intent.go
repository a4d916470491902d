package engine

import (
	"strings"

	"github.com/goldenoak/threadline/pkg/domain/model"
	"github.com/goldenoak/threadline/pkg/domain/types"
)

// Rule is one ordered intent keyword rule. Rules are evaluated in order
// over the lower-cased concatenation of user/system message bodies; the
// first rule with any matching keyword wins.
type Rule struct {
	Key      types.IntentKey
	Title    string
	Keywords []string
}

// DefaultRules returns the built-in intent rule list, ordered from most to
// least specific.
func DefaultRules() []Rule {
	return []Rule{
		{
			Key:      types.IntentAppointment,
			Keywords: []string{"schedule", "appointment", "book", "visit", "come in"},
		},
		{
			Key:      types.IntentAppraisal,
			Keywords: []string{"apprais", "estimate", "value", "worth", "photo"},
		},
		{
			Key:      types.IntentInventory,
			Keywords: []string{"in stock", "inventory", "available", "have any", "looking for"},
		},
		{
			Key:      types.IntentHours,
			Keywords: []string{"open", "hours", "today", "close", "closed"},
		},
		{
			Key:      types.IntentSupport,
			Keywords: []string{"help", "question", "info", "contact"},
		},
	}
}

// title resolves the display title of a rule, defaulting to the intent's
// built-in title.
func (r Rule) title() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Key.Title()
}

// Classify assigns a coarse intent to an interaction. A voice-originated
// scheduling event is always Appointment: voice transcripts are too noisy
// for keyword matching.
func Classify(x *model.Interaction, rules []Rule) (types.IntentKey, string) {
	if x.VoiceBooking {
		return types.IntentAppointment, types.IntentAppointment.Title()
	}

	text := strings.ToLower(x.TranscriptForClassification())
	for _, rule := range rules {
		for _, keyword := range rule.Keywords {
			if keyword != "" && strings.Contains(text, strings.ToLower(keyword)) {
				return rule.Key, rule.title()
			}
		}
	}
	return types.IntentGeneral, types.IntentGeneral.Title()
}
