package engine

import (
	"sort"

	"github.com/goldenoak/threadline/pkg/domain/model"
	"github.com/goldenoak/threadline/pkg/domain/types"
)

// Aggregate composes the nested Customer → Case → Conversation view from a
// set of raw interaction records. Records that cannot be normalized are
// silently dropped; duplicate conversation IDs keep the first occurrence.
// The whole computation is recomputed from scratch: running it twice on the
// same input in the same order yields identical output.
func Aggregate(raws []map[string]any, opts ...Option) []*model.CustomerGroup {
	cfg := newConfig(opts...)
	now := cfg.now().UTC()

	// Normalize in arrival order
	records := make([]*model.Interaction, 0, len(raws))
	seen := make(map[types.ConversationID]bool, len(raws))
	for _, raw := range raws {
		x := Normalize(raw, now)
		if x == nil || seen[x.ConversationID] {
			continue
		}
		seen[x.ConversationID] = true
		records = append(records, x)
	}

	// Resolve identity in a single pass, then pin every record to the
	// final canonical key: a later record can merge earlier clusters.
	res := newResolver()
	for _, x := range records {
		x.CustomerKey = res.Resolve(x)
	}
	for _, x := range records {
		x.CustomerKey = res.Canonical(x.CustomerKey)
	}

	// Classify intent
	for _, x := range records {
		x.IntentKey, x.IntentTitle = Classify(x, cfg.rules)
	}

	// Group records per customer, preserving first-appearance order
	byCustomer := make(map[types.CustomerKey][]*model.Interaction)
	var order []types.CustomerKey
	for _, x := range records {
		if _, ok := byCustomer[x.CustomerKey]; !ok {
			order = append(order, x.CustomerKey)
		}
		byCustomer[x.CustomerKey] = append(byCustomer[x.CustomerKey], x)
	}

	groups := make([]*model.CustomerGroup, 0, len(order))
	for _, key := range order {
		cases := buildCases(byCustomer[key], cfg.window())
		groups = append(groups, composeGroup(key, res, cases))
	}

	sortGroups(groups)
	return groups
}

// DeleteConversation returns the aggregated view recomputed with the given
// conversation removed. The second return value reports whether the
// conversation existed. This is a pure re-derivation, not an incremental
// patch: all parent aggregates are rebuilt from the remaining records and
// empty cases/customers disappear on their own.
func DeleteConversation(raws []map[string]any, conversationID types.ConversationID, opts ...Option) ([]*model.CustomerGroup, bool) {
	kept := make([]map[string]any, 0, len(raws))
	found := false
	for _, raw := range raws {
		if ConversationIDOf(raw) == conversationID {
			found = true
			continue
		}
		kept = append(kept, raw)
	}
	return Aggregate(kept, opts...), found
}

// composeGroup rolls a customer's cases up into one CustomerGroup
func composeGroup(key types.CustomerKey, res *resolver, cases []*model.Case) *model.CustomerGroup {
	group := &model.CustomerGroup{
		CustomerKey:   key,
		CustomerLabel: res.Label(key),
		CustomerID:    res.CustomerID(key),
		Phone:         res.Phone(key),
		Cases:         cases,
	}

	for _, c := range cases {
		// Conversations newest-first within the case
		sort.SliceStable(c.Conversations, func(i, j int) bool {
			if !c.Conversations[i].StartedAt.Equal(c.Conversations[j].StartedAt) {
				return c.Conversations[i].StartedAt.After(c.Conversations[j].StartedAt)
			}
			return c.Conversations[i].ConversationID < c.Conversations[j].ConversationID
		})

		group.MessageCount += c.MessageCount
		group.ConversationCount += c.ConversationCount
		for _, s := range c.Sources {
			if !containsSource(group.Sources, s) {
				group.Sources = append(group.Sources, s)
			}
		}
		if group.FirstActivityAt.IsZero() || c.FirstActivityAt.Before(group.FirstActivityAt) {
			group.FirstActivityAt = c.FirstActivityAt
		}
		if c.LastActivityAt.After(group.LastActivityAt) {
			group.LastActivityAt = c.LastActivityAt
		}
	}
	group.SourceCount = len(group.Sources)

	// Cases newest-activity-first
	sort.SliceStable(group.Cases, func(i, j int) bool {
		if !group.Cases[i].LastActivityAt.Equal(group.Cases[j].LastActivityAt) {
			return group.Cases[i].LastActivityAt.After(group.Cases[j].LastActivityAt)
		}
		return group.Cases[i].CaseKey < group.Cases[j].CaseKey
	})

	return group
}

// sortGroups orders customers by most-recent activity, with the customer
// key as a deterministic tie-break.
func sortGroups(groups []*model.CustomerGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		if !groups[i].LastActivityAt.Equal(groups[j].LastActivityAt) {
			return groups[i].LastActivityAt.After(groups[j].LastActivityAt)
		}
		return groups[i].CustomerKey < groups[j].CustomerKey
	})
}
