package types

// IntentKey represents a coarse intent classification for an interaction
type IntentKey string

const (
	IntentAppointment IntentKey = "appointment"
	IntentAppraisal   IntentKey = "appraisal"
	IntentInventory   IntentKey = "inventory"
	IntentHours       IntentKey = "hours"
	IntentSupport     IntentKey = "support"
	IntentGeneral     IntentKey = "general"
)

var intentTitles = map[IntentKey]string{
	IntentAppointment: "Appointment",
	IntentAppraisal:   "Appraisal",
	IntentInventory:   "Inventory Inquiry",
	IntentHours:       "Store Hours",
	IntentSupport:     "General Support",
	IntentGeneral:     "General",
}

// AllIntentKeys returns all valid intent keys
func AllIntentKeys() []IntentKey {
	return []IntentKey{
		IntentAppointment,
		IntentAppraisal,
		IntentInventory,
		IntentHours,
		IntentSupport,
		IntentGeneral,
	}
}

// IsValid checks if the intent key is valid
func (k IntentKey) IsValid() bool {
	_, ok := intentTitles[k]
	return ok
}

// String returns the string representation of the intent key
func (k IntentKey) String() string {
	return string(k)
}

// Title returns the human-readable title for the intent
func (k IntentKey) Title() string {
	if title, ok := intentTitles[k]; ok {
		return title
	}
	return intentTitles[IntentGeneral]
}
