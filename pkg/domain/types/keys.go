package types

// ConversationID is the unique key of one interaction record
type ConversationID string

// String returns the string representation of the conversation ID
func (c ConversationID) String() string {
	return string(c)
}

// CustomerKey is the canonical key of a resolved customer cluster
type CustomerKey string

// String returns the string representation of the customer key
func (c CustomerKey) String() string {
	return string(c)
}

// CaseKey identifies one bounded conversation thread of a customer
type CaseKey string

// String returns the string representation of the case key
func (c CaseKey) String() string {
	return string(c)
}

// IdentityToken is a namespaced identity hint derived from one identifier,
// e.g. "phone:+19045550100" or "customer_id:cust_42".
type IdentityToken string

// String returns the string representation of the identity token
func (t IdentityToken) String() string {
	return string(t)
}
