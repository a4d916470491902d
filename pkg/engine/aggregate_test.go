package engine_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/goldenoak/threadline/pkg/domain/types"
	"github.com/goldenoak/threadline/pkg/engine"
)

var baseTime = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time {
	return baseTime
}

func record(id string, startedAt time.Time, fields map[string]any) map[string]any {
	raw := map[string]any{
		"conversation_id": id,
		"started_at":      startedAt.Format(time.RFC3339),
	}
	for k, v := range fields {
		raw[k] = v
	}
	return raw
}

func userMessage(content string) []any {
	return []any{
		map[string]any{"role": "user", "content": content},
	}
}

func TestAggregateIdempotence(t *testing.T) {
	raws := []map[string]any{
		record("web_1", baseTime, map[string]any{
			"email":    "anna@example.com",
			"messages": userMessage("Can I schedule a visit tomorrow?"),
		}),
		record("sms_2", baseTime.Add(2*time.Hour), map[string]any{
			"phone":    "904-555-0100",
			"messages": userMessage("How much is this ring worth?"),
		}),
		record("voice_booking_3", baseTime.Add(3*time.Hour), map[string]any{
			"phone": "904-555-0100",
		}),
	}

	first := engine.Aggregate(raws, engine.WithNow(fixedNow))
	second := engine.Aggregate(raws, engine.WithNow(fixedNow))

	firstJSON, err := json.Marshal(first)
	gt.NoError(t, err).Required()
	secondJSON, err := json.Marshal(second)
	gt.NoError(t, err).Required()

	gt.Value(t, string(secondJSON)).Equal(string(firstJSON))
}

func TestAggregateEmptyInput(t *testing.T) {
	groups := engine.Aggregate(nil, engine.WithNow(fixedNow))

	gt.Array(t, groups).Length(0)

	// Empty output must render as an empty list, not null
	data, err := json.Marshal(groups)
	gt.NoError(t, err).Required()
	gt.Value(t, string(data)).Equal("[]")
}

func TestAggregateDropsUnusableAndDuplicateRecords(t *testing.T) {
	raws := []map[string]any{
		{"messages": userMessage("no id on this one")},
		record("web_1", baseTime, map[string]any{
			"email":    "anna@example.com",
			"messages": userMessage("first copy"),
		}),
		record("web_1", baseTime.Add(time.Hour), map[string]any{
			"email":    "anna@example.com",
			"messages": userMessage("duplicate id, must be ignored"),
		}),
	}

	groups := engine.Aggregate(raws, engine.WithNow(fixedNow))

	gt.Array(t, groups).Length(1).Required()
	gt.Value(t, groups[0].ConversationCount).Equal(1)
	gt.Array(t, groups[0].Cases).Length(1).Required()
	gt.Value(t, groups[0].Cases[0].Preview).Equal("first copy")
}

func TestAggregateTransitiveChainMerge(t *testing.T) {
	raws := []map[string]any{
		record("sms_1", baseTime, map[string]any{
			"phone":    "904-555-0100",
			"messages": userMessage("hello"),
		}),
		record("web_2", baseTime.Add(time.Hour), map[string]any{
			"phone":    "+1 (904) 555-0100",
			"email":    "anna@example.com",
			"messages": userMessage("hello again"),
		}),
		record("web_3", baseTime.Add(2*time.Hour), map[string]any{
			"email":       "anna@example.com",
			"customer_id": "cust_7",
			"messages":    userMessage("it is still me"),
		}),
	}

	groups := engine.Aggregate(raws, engine.WithNow(fixedNow))

	gt.Array(t, groups).Length(1).Required()
	gt.Value(t, groups[0].ConversationCount).Equal(3)
	gt.Value(t, groups[0].CustomerLabel).Equal("cust_7")
	gt.Value(t, groups[0].CustomerID).Equal("cust_7")
	gt.Value(t, groups[0].Phone).Equal("+19045550100")
}

func TestAggregateBridgeMergesDistinctClusters(t *testing.T) {
	// The first two records share no token and form two clusters; the third
	// carries both identifiers and must collapse them into one customer.
	raws := []map[string]any{
		record("sms_1", baseTime, map[string]any{
			"phone":    "904-555-0100",
			"messages": userMessage("hello from my phone"),
		}),
		record("web_2", baseTime.Add(time.Hour), map[string]any{
			"email":    "anna@example.com",
			"messages": userMessage("hello from the web"),
		}),
		record("web_3", baseTime.Add(2*time.Hour), map[string]any{
			"phone":    "9045550100",
			"email":    "anna@example.com",
			"messages": userMessage("same person, both identifiers"),
		}),
	}

	groups := engine.Aggregate(raws, engine.WithNow(fixedNow))

	gt.Array(t, groups).Length(1).Required()
	gt.Value(t, groups[0].ConversationCount).Equal(3)
	gt.Value(t, groups[0].Phone).Equal("+19045550100")
}

func TestAggregatePhoneDominance(t *testing.T) {
	raws := []map[string]any{
		record("web_1", baseTime, map[string]any{
			"customer_id": "cust_9",
			"phone":       "904-555-0100",
			"messages":    userMessage("hello"),
		}),
		record("sms_2", baseTime.Add(time.Hour), map[string]any{
			"phone":    "(904) 555-0100",
			"messages": userMessage("me again, phone only"),
		}),
	}

	groups := engine.Aggregate(raws, engine.WithNow(fixedNow))

	gt.Array(t, groups).Length(1).Required()
	gt.Value(t, groups[0].CustomerKey).Equal(types.CustomerKey("cust_9"))
	gt.Value(t, groups[0].ConversationCount).Equal(2)
}

func TestAggregateCaseWindowBoundary(t *testing.T) {
	window := 72 * time.Hour

	t.Run("exactly the window apart joins the case", func(t *testing.T) {
		raws := []map[string]any{
			record("web_1", baseTime, map[string]any{
				"email":    "anna@example.com",
				"messages": userMessage("Can I schedule a visit?"),
			}),
			record("web_2", baseTime.Add(window), map[string]any{
				"email":    "anna@example.com",
				"messages": userMessage("I would like to book a slot"),
			}),
		}

		groups := engine.Aggregate(raws, engine.WithNow(fixedNow))

		gt.Array(t, groups).Length(1).Required()
		gt.Array(t, groups[0].Cases).Length(1).Required()
		gt.Value(t, groups[0].Cases[0].ConversationCount).Equal(2)
	})

	t.Run("one second beyond the window starts a new case", func(t *testing.T) {
		raws := []map[string]any{
			record("web_1", baseTime, map[string]any{
				"email":    "anna@example.com",
				"messages": userMessage("Can I schedule a visit?"),
			}),
			record("web_2", baseTime.Add(window+time.Second), map[string]any{
				"email":    "anna@example.com",
				"messages": userMessage("I would like to book a slot"),
			}),
		}

		groups := engine.Aggregate(raws, engine.WithNow(fixedNow))

		gt.Array(t, groups).Length(1).Required()
		gt.Array(t, groups[0].Cases).Length(2).Required()
		gt.Value(t, groups[0].Cases[0].CaseKey).NotEqual(groups[0].Cases[1].CaseKey)
	})

	t.Run("window override narrows the case", func(t *testing.T) {
		raws := []map[string]any{
			record("web_1", baseTime, map[string]any{
				"email":    "anna@example.com",
				"messages": userMessage("Can I schedule a visit?"),
			}),
			record("web_2", baseTime.Add(2*time.Hour), map[string]any{
				"email":    "anna@example.com",
				"messages": userMessage("I would like to book a slot"),
			}),
		}

		groups := engine.Aggregate(raws, engine.WithNow(fixedNow), engine.WithCaseWindowHours(1))

		gt.Array(t, groups).Length(1).Required()
		gt.Array(t, groups[0].Cases).Length(2)
	})
}

func TestAggregateIntentSplitsCases(t *testing.T) {
	raws := []map[string]any{
		record("web_1", baseTime, map[string]any{
			"email":    "anna@example.com",
			"messages": userMessage("Can I schedule a visit?"),
		}),
		record("web_2", baseTime.Add(time.Hour), map[string]any{
			"email":    "anna@example.com",
			"messages": userMessage("How much is my watch worth?"),
		}),
	}

	groups := engine.Aggregate(raws, engine.WithNow(fixedNow))

	gt.Array(t, groups).Length(1).Required()
	gt.Array(t, groups[0].Cases).Length(2).Required()

	titles := make([]string, 0, len(groups[0].Cases))
	for _, c := range groups[0].Cases {
		titles = append(titles, c.CaseTitle)
	}
	gt.Array(t, titles).Has("Appointment")
	gt.Array(t, titles).Has("Appraisal")
}

func TestAggregateExplicitCaseOverride(t *testing.T) {
	// Months apart and different intent text, but the explicit key pins both
	// records to the same case.
	raws := []map[string]any{
		record("voice_booking_1", baseTime, map[string]any{
			"phone":    "904-555-0100",
			"case_key": "call_20260105",
		}),
		record("sms_2", baseTime.Add(90*24*time.Hour), map[string]any{
			"phone":    "904-555-0100",
			"case_key": "call_20260105",
			"messages": userMessage("What are your hours today?"),
		}),
	}

	groups := engine.Aggregate(raws, engine.WithNow(fixedNow))

	gt.Array(t, groups).Length(1).Required()
	gt.Array(t, groups[0].Cases).Length(1).Required()
	gt.Value(t, groups[0].Cases[0].CaseKey).Equal(types.CaseKey("call_20260105"))
	gt.Value(t, groups[0].Cases[0].ConversationCount).Equal(2)
}

func TestAggregateAnonymousRecordsStayVisible(t *testing.T) {
	raws := []map[string]any{
		record("web_ghost_visitor", baseTime, map[string]any{
			"messages": userMessage("just browsing"),
		}),
	}

	groups := engine.Aggregate(raws, engine.WithNow(fixedNow))

	gt.Array(t, groups).Length(1).Required()
	gt.Value(t, groups[0].CustomerKey).Equal(types.CustomerKey("anon_web_ghost_vi"))
	gt.Value(t, groups[0].ConversationCount).Equal(1)
}

func TestAggregateGroupOrdering(t *testing.T) {
	raws := []map[string]any{
		record("web_1", baseTime, map[string]any{
			"email":    "older@example.com",
			"messages": userMessage("hello"),
		}),
		record("web_2", baseTime.Add(5*time.Hour), map[string]any{
			"email":    "newer@example.com",
			"messages": userMessage("hi there"),
		}),
	}

	groups := engine.Aggregate(raws, engine.WithNow(fixedNow))

	gt.Array(t, groups).Length(2).Required()
	gt.Value(t, groups[0].CustomerLabel).Equal("newer@example.com")
	gt.Value(t, groups[1].CustomerLabel).Equal("older@example.com")
}

func TestAggregateConversationsNewestFirst(t *testing.T) {
	raws := []map[string]any{
		record("web_1", baseTime, map[string]any{
			"email":    "anna@example.com",
			"messages": userMessage("Can I schedule a visit?"),
		}),
		record("web_2", baseTime.Add(time.Hour), map[string]any{
			"email":    "anna@example.com",
			"messages": userMessage("Actually, can we book for Friday?"),
		}),
	}

	groups := engine.Aggregate(raws, engine.WithNow(fixedNow))

	gt.Array(t, groups).Length(1).Required()
	gt.Array(t, groups[0].Cases).Length(1).Required()

	c := groups[0].Cases[0]
	gt.Array(t, c.Conversations).Length(2).Required()
	gt.Value(t, c.Conversations[0].ConversationID).Equal(types.ConversationID("web_2"))
	gt.Value(t, c.Conversations[1].ConversationID).Equal(types.ConversationID("web_1"))
	gt.Value(t, c.Preview).Equal("Actually, can we book for Friday?")
}

func TestAggregateThreeChannelScenario(t *testing.T) {
	// A customer calls, texts later the same day, and a staff record later
	// attaches an explicit customer ID to the same phone number.
	raws := []map[string]any{
		record("voice_booking_20260105", baseTime, map[string]any{
			"from": "(904) 555-0100",
		}),
		record("sms_20260105", baseTime.Add(3*time.Hour), map[string]any{
			"phone":    "+1 904 555 0100",
			"messages": userMessage("Can I schedule a visit tomorrow?"),
		}),
		record("web_followup", baseTime.Add(6*time.Hour), map[string]any{
			"channel":     "web",
			"customer_id": "cust_42",
			"phone":       "9045550100",
			"messages":    userMessage("Thanks for earlier!"),
		}),
	}

	groups := engine.Aggregate(raws, engine.WithNow(fixedNow))

	gt.Array(t, groups).Length(1).Required()
	group := groups[0]

	gt.Value(t, group.CustomerLabel).Equal("cust_42")
	gt.Value(t, group.CustomerID).Equal("cust_42")
	gt.Value(t, group.Phone).Equal("+19045550100")
	gt.Value(t, group.ConversationCount).Equal(3)
	gt.Value(t, group.SourceCount).Equal(3)

	gt.Array(t, group.Cases).Length(2).Required()

	var sawAppointment, sawGeneral bool
	for _, c := range group.Cases {
		switch c.CaseTitle {
		case "Appointment":
			sawAppointment = true
			gt.Value(t, c.ConversationCount).Equal(2)
			gt.Array(t, c.Sources).Has(types.SourceVoice)
			gt.Array(t, c.Sources).Has(types.SourceSMS)
		case "General":
			sawGeneral = true
			gt.Value(t, c.ConversationCount).Equal(1)
		}
	}
	gt.Bool(t, sawAppointment).True()
	gt.Bool(t, sawGeneral).True()
}

func TestDeleteConversation(t *testing.T) {
	raws := []map[string]any{
		record("web_1", baseTime, map[string]any{
			"email":    "anna@example.com",
			"messages": userMessage("Can I schedule a visit?"),
		}),
		record("web_2", baseTime.Add(time.Hour), map[string]any{
			"email":    "bob@example.com",
			"messages": userMessage("What are your hours?"),
		}),
	}

	t.Run("deleting the only conversation removes the customer", func(t *testing.T) {
		groups, found := engine.DeleteConversation(raws, "web_2", engine.WithNow(fixedNow))

		gt.Bool(t, found).True()
		gt.Array(t, groups).Length(1).Required()
		gt.Value(t, groups[0].CustomerLabel).Equal("anna@example.com")
	})

	t.Run("unknown conversation leaves the view intact", func(t *testing.T) {
		groups, found := engine.DeleteConversation(raws, "web_999", engine.WithNow(fixedNow))

		gt.Bool(t, found).False()
		gt.Array(t, groups).Length(2)
	})

	t.Run("deleting one of two conversations keeps the case", func(t *testing.T) {
		sameCustomer := []map[string]any{
			record("web_1", baseTime, map[string]any{
				"email":    "anna@example.com",
				"messages": userMessage("Can I schedule a visit?"),
			}),
			record("web_2", baseTime.Add(time.Hour), map[string]any{
				"email":    "anna@example.com",
				"messages": userMessage("Book me for Friday please"),
			}),
		}

		groups, found := engine.DeleteConversation(sameCustomer, "web_1", engine.WithNow(fixedNow))

		gt.Bool(t, found).True()
		gt.Array(t, groups).Length(1).Required()
		gt.Array(t, groups[0].Cases).Length(1).Required()
		gt.Value(t, groups[0].Cases[0].ConversationCount).Equal(1)
	})
}
