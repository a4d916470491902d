package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goldenoak/threadline/pkg/domain/model"
	"github.com/goldenoak/threadline/pkg/domain/types"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[a-zA-Z]{2,}$`)
	emailScan    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// Normalize converts one raw, loosely-typed interaction record into a
// canonical Interaction. It returns nil when the record carries no usable
// conversation ID. Any other field that fails validation is omitted; the
// rest of the record is still normalized. It never fails.
//
// fallback is the timestamp substituted for missing or unparseable time
// values, typically "now" at the start of the aggregation call.
func Normalize(raw map[string]any, fallback time.Time) *model.Interaction {
	conversationID := ConversationIDOf(raw)
	if conversationID == "" {
		return nil
	}

	x := &model.Interaction{
		ConversationID: conversationID,
	}

	x.Source = inferSource(raw, conversationID)
	x.Channel = inferChannel(raw, x.Source)

	if id := stringField(raw, "customer_id", "customerId"); id != "" {
		x.CustomerID = id
	}
	if phone, ok := NormalizePhone(stringField(raw, "phone", "phone_number", "from")); ok {
		x.Phone = phone
	}
	if email, ok := NormalizeEmail(stringField(raw, "email")); ok {
		x.Email = email
	}
	if sid := stringField(raw, "session_id", "sessionId"); sid != "" {
		x.SessionID = sid
	}

	x.StartedAt = timeField(raw, fallback, "started_at", "startedAt", "created_at", "createdAt")
	x.EndedAt = timeField(raw, x.StartedAt, "ended_at", "endedAt", "updated_at", "updatedAt")

	x.Messages = normalizeMessages(raw["messages"], x.StartedAt)
	if len(x.Messages) == 0 {
		x.Messages = []model.Message{{
			Role:      model.RoleSystem,
			Content:   model.PlaceholderContent,
			Timestamp: x.StartedAt,
		}}
	}

	// Weaker identity signal: an email-like substring inside message bodies
	if x.Email == "" {
		x.EmailHint = scanEmailHint(x.Messages)
	}

	x.VoiceBooking = isVoiceBooking(raw, x.Source, conversationID)

	if key := stringField(raw, "explicit_case_key", "case_key", "caseKey"); key != "" {
		x.ExplicitCaseKey = types.CaseKey(key)
	}

	x.IdentityTokens = identityTokens(x)

	return x
}

// ConversationIDOf extracts the conversation ID of a raw record without
// normalizing the rest of it. Returns "" when no usable ID is present.
func ConversationIDOf(raw map[string]any) types.ConversationID {
	return types.ConversationID(stringField(raw, "conversation_id", "conversationId", "id"))
}

// NormalizePhone strips formatting from a phone number and returns it in
// E.164-like form. Accepts 10-digit national numbers (assumed +1), 11-digit
// numbers with a leading 1, and 8-15 digit international numbers. Anything
// else is unusable.
func NormalizePhone(s string) (string, bool) {
	digits := nonDigits.ReplaceAllString(s, "")
	switch {
	case len(digits) == 10:
		return "+1" + digits, true
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits, true
	case len(digits) >= 8 && len(digits) <= 15:
		return "+" + digits, true
	default:
		return "", false
	}
}

// NormalizeEmail lower-cases and validates an email address against a
// simple local@domain.tld pattern.
func NormalizeEmail(s string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(s))
	if email == "" || !emailPattern.MatchString(email) {
		return "", false
	}
	return email, true
}

// inferSource determines the record source with priority: explicit source
// field, then channel field, then conversation ID prefix, then unknown.
func inferSource(raw map[string]any, conversationID types.ConversationID) types.Source {
	if s := types.Source(stringField(raw, "source")); s.IsValid() {
		return s
	}
	if ch := types.Channel(stringField(raw, "channel")); ch.IsValid() {
		return types.SourceFromChannel(ch)
	}
	if s := types.InferSourceFromConversationID(conversationID.String()); s != types.SourceUnknown {
		return s
	}
	return types.SourceUnknown
}

// inferChannel prefers the explicit channel field and otherwise derives the
// channel from the source, defaulting to web.
func inferChannel(raw map[string]any, source types.Source) types.Channel {
	if ch := types.Channel(stringField(raw, "channel")); ch.IsValid() {
		return ch
	}
	return source.Channel()
}

func normalizeMessages(v any, fallback time.Time) []model.Message {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	messages := make([]model.Message, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}

		content := messageContent(m["content"])
		if content == "" {
			content = messageContent(m["text"])
		}
		if content == "" {
			continue
		}

		role := strings.ToLower(stringField(m, "role"))
		switch role {
		case model.RoleUser, model.RoleAssistant, model.RoleSystem:
		default:
			role = model.RoleUser
		}

		messages = append(messages, model.Message{
			Role:      role,
			Content:   content,
			Timestamp: timeField(m, fallback, "timestamp", "created_at", "createdAt"),
			MediaURL:  stringField(m, "media_url", "image_url", "image"),
		})
	}
	return messages
}

// messageContent accepts either a plain string or an array of {text} parts,
// which are concatenated with spaces.
func messageContent(v any) string {
	switch content := v.(type) {
	case string:
		return strings.TrimSpace(content)
	case []any:
		parts := make([]string, 0, len(content))
		for _, part := range content {
			switch p := part.(type) {
			case string:
				if s := strings.TrimSpace(p); s != "" {
					parts = append(parts, s)
				}
			case map[string]any:
				if s := stringField(p, "text"); s != "" {
					parts = append(parts, s)
				}
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

func scanEmailHint(messages []model.Message) string {
	for _, msg := range messages {
		if hit := emailScan.FindString(msg.Content); hit != "" {
			return strings.ToLower(hit)
		}
	}
	return ""
}

func isVoiceBooking(raw map[string]any, source types.Source, conversationID types.ConversationID) bool {
	if source != types.SourceVoice {
		return false
	}
	if boolField(raw, "voice_booking", "is_booking") {
		return true
	}
	if meta, ok := raw["metadata"].(map[string]any); ok && boolField(meta, "voice_booking", "is_booking") {
		return true
	}
	return strings.HasPrefix(conversationID.String(), "voice_booking_")
}

// identityTokens derives at most one namespaced token per identifier type,
// in resolution precedence order. The message-body email hint is only
// included when the record carries no other identity signal.
func identityTokens(x *model.Interaction) []types.IdentityToken {
	var tokens []types.IdentityToken
	if x.CustomerID != "" {
		tokens = append(tokens, types.IdentityToken("customer_id:"+x.CustomerID))
	}
	if x.Phone != "" {
		tokens = append(tokens, types.IdentityToken("phone:"+x.Phone))
	}
	if x.Email != "" {
		tokens = append(tokens, types.IdentityToken("email:"+x.Email))
	}
	if x.SessionID != "" {
		tokens = append(tokens, types.IdentityToken("session:"+x.SessionID))
	}
	if len(tokens) == 0 && x.EmailHint != "" {
		tokens = append(tokens, types.IdentityToken("email:"+x.EmailHint))
	}
	return tokens
}

// stringField returns the first non-empty string value among the given keys,
// coercing numeric values since raw records carry no guaranteed types.
func stringField(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		case fmt.Stringer:
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func boolField(raw map[string]any, keys ...string) bool {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			if strings.EqualFold(v, "true") {
				return true
			}
		}
	}
	return false
}

// timeField parses the first usable timestamp among the given keys and
// falls back rather than propagating an invalid time.
func timeField(raw map[string]any, fallback time.Time, keys ...string) time.Time {
	for _, key := range keys {
		if ts, ok := parseTime(raw[key]); ok {
			return ts
		}
	}
	return fallback
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
		return time.Time{}, false
	case float64:
		return epochTime(int64(t))
	case int64:
		return epochTime(t)
	case int:
		return epochTime(int64(t))
	default:
		return time.Time{}, false
	}
}

// epochTime interprets numeric timestamps as Unix seconds, or milliseconds
// for values too large to be seconds.
func epochTime(n int64) (time.Time, bool) {
	if n <= 0 {
		return time.Time{}, false
	}
	if n > 1e12 {
		return time.UnixMilli(n).UTC(), true
	}
	return time.Unix(n, 0).UTC(), true
}
