package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/goldenoak/threadline/pkg/domain/model"
	"github.com/goldenoak/threadline/pkg/domain/types"
)

// buildCases groups one customer's interactions into bounded cases.
//
// Records carrying an explicit case key are always grouped under that exact
// key: explicit keys are set by session-bound producers (a single voice
// call) and bypass windowing entirely. All other records are processed in
// ascending time order, per intent: a record joins the open case for its
// intent when the gap to the case's last activity is within the window,
// otherwise it starts a new case keyed by a deterministic time bucket so
// the same backlog reprocessed from scratch reproduces identical keys.
func buildCases(records []*model.Interaction, window time.Duration) []*model.Case {
	sorted := make([]*model.Interaction, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].StartedAt.Equal(sorted[j].StartedAt) {
			return sorted[i].StartedAt.Before(sorted[j].StartedAt)
		}
		return sorted[i].ConversationID < sorted[j].ConversationID
	})

	var cases []*model.Case
	explicit := make(map[types.CaseKey]*model.Case)
	open := make(map[types.IntentKey]*model.Case)

	for _, x := range sorted {
		var c *model.Case

		switch {
		case x.ExplicitCaseKey != "":
			c = explicit[x.ExplicitCaseKey]
			if c == nil {
				c = newCase(x.ExplicitCaseKey, x)
				explicit[x.ExplicitCaseKey] = c
				cases = append(cases, c)
			}
		default:
			c = open[x.IntentKey]
			if c == nil || x.StartedAt.Sub(c.LastActivityAt) > window {
				c = newCase(bucketKey(x, window), x)
				open[x.IntentKey] = c
				cases = append(cases, c)
			}
		}

		joinCase(c, x)
	}

	return cases
}

// bucketKey derives a deterministic key for a newly opened case. The
// time-bucket suffix only seeds the key; continuation is decided by the gap
// to the case's last activity, not by bucket membership.
func bucketKey(x *model.Interaction, window time.Duration) types.CaseKey {
	bucket := x.StartedAt.Unix() / int64(window/time.Second)
	return types.CaseKey(fmt.Sprintf("%s:%s:%d", x.CustomerKey, x.IntentKey, bucket))
}

func newCase(key types.CaseKey, x *model.Interaction) *model.Case {
	return &model.Case{
		CaseKey:         key,
		CaseTitle:       x.IntentTitle,
		FirstActivityAt: x.StartedAt,
		LastActivityAt:  x.EndedAt,
	}
}

// joinCase adds a record to a case and re-derives the case aggregates.
// Records arrive in ascending time order, so the preview always ends up
// being the newest record's snippet.
func joinCase(c *model.Case, x *model.Interaction) {
	x.CaseKey = c.CaseKey
	c.Conversations = append(c.Conversations, x)
	c.ConversationCount++
	c.MessageCount += x.MessageCount()
	c.Preview = x.Preview(previewMaxLen)

	if x.StartedAt.Before(c.FirstActivityAt) {
		c.FirstActivityAt = x.StartedAt
	}
	if x.EndedAt.After(c.LastActivityAt) {
		c.LastActivityAt = x.EndedAt
	}

	if !containsSource(c.Sources, x.Source) {
		c.Sources = append(c.Sources, x.Source)
	}
}

func containsSource(sources []types.Source, s types.Source) bool {
	for _, existing := range sources {
		if existing == s {
			return true
		}
	}
	return false
}
