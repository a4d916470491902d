package engine

import (
	"regexp"
	"strings"

	"github.com/goldenoak/threadline/pkg/domain/model"
	"github.com/goldenoak/threadline/pkg/domain/types"
)

// Identifier strength, strongest first. Canonical keys are minted from the
// strongest available identifier and display labels upgrade along the same
// scale.
const (
	rankCustomerID = 3
	rankPhone      = 2
	rankEmail      = 1
	rankNone       = 0
)

var keySanitizer = regexp.MustCompile(`[^a-zA-Z0-9_@+.\-]`)

// resolver incrementally merges interaction records into customer clusters
// via shared identity tokens. It is a union-find with path compression and
// union by size: a record that bridges two previously distinct clusters
// merges them, re-pointing the smaller cluster at the canonical key of the
// larger. A resolver is constructed fresh for every aggregation call and
// must never outlive one.
type resolver struct {
	parent  map[types.CustomerKey]types.CustomerKey
	size    map[types.CustomerKey]int
	byToken map[types.IdentityToken]types.CustomerKey

	labels     map[types.CustomerKey]string
	labelRanks map[types.CustomerKey]int
	customerID map[types.CustomerKey]string
	phone      map[types.CustomerKey]string
}

func newResolver() *resolver {
	return &resolver{
		parent:     make(map[types.CustomerKey]types.CustomerKey),
		size:       make(map[types.CustomerKey]int),
		byToken:    make(map[types.IdentityToken]types.CustomerKey),
		labels:     make(map[types.CustomerKey]string),
		labelRanks: make(map[types.CustomerKey]int),
		customerID: make(map[types.CustomerKey]string),
		phone:      make(map[types.CustomerKey]string),
	}
}

// Resolve assigns the record to a customer cluster and returns the cluster
// key as of this point in the pass. Keys can be superseded by later merges;
// call Canonical after the full pass for the final key.
func (r *resolver) Resolve(x *model.Interaction) types.CustomerKey {
	var root types.CustomerKey
	for _, token := range x.IdentityTokens {
		existing, ok := r.byToken[token]
		if !ok {
			continue
		}
		existingRoot := r.find(existing)
		if root == "" {
			root = existingRoot
		} else if existingRoot != root {
			root = r.union(root, existingRoot)
		}
	}

	if root == "" {
		root = r.mint(x)
	}

	// Register every token of the record so the cluster stays reachable
	// from identifiers seen on any channel.
	for _, token := range x.IdentityTokens {
		if _, ok := r.byToken[token]; !ok {
			r.byToken[token] = root
			r.size[root]++
		}
	}

	r.adoptIdentity(root, x)
	return root
}

// Canonical returns the final cluster key after all records are resolved
func (r *resolver) Canonical(key types.CustomerKey) types.CustomerKey {
	return r.find(key)
}

// Label returns the display label of a cluster, falling back to the key
func (r *resolver) Label(key types.CustomerKey) string {
	root := r.find(key)
	if label, ok := r.labels[root]; ok && label != "" {
		return label
	}
	return root.String()
}

// CustomerID returns the first explicit customer ID seen in the cluster
func (r *resolver) CustomerID(key types.CustomerKey) string {
	return r.customerID[r.find(key)]
}

// Phone returns the first normalized phone number seen in the cluster
func (r *resolver) Phone(key types.CustomerKey) string {
	return r.phone[r.find(key)]
}

func (r *resolver) find(key types.CustomerKey) types.CustomerKey {
	p, ok := r.parent[key]
	if !ok || p == key {
		return key
	}
	root := r.find(p)
	r.parent[key] = root
	return root
}

// union merges two cluster roots and returns the surviving canonical key.
// The smaller cluster is re-pointed at the larger one; ties keep the first
// argument so resolution stays deterministic in arrival order.
func (r *resolver) union(a, b types.CustomerKey) types.CustomerKey {
	a, b = r.find(a), r.find(b)
	if a == b {
		return a
	}
	if r.size[b] > r.size[a] {
		a, b = b, a
	}
	r.parent[b] = a
	r.size[a] += r.size[b]
	delete(r.size, b)

	// Carry the absorbed cluster's identity where it is stronger or the
	// survivor has none.
	if r.labelRanks[b] > r.labelRanks[a] {
		r.labels[a] = r.labels[b]
		r.labelRanks[a] = r.labelRanks[b]
	}
	if r.customerID[a] == "" && r.customerID[b] != "" {
		r.customerID[a] = r.customerID[b]
	}
	if r.phone[a] == "" && r.phone[b] != "" {
		r.phone[a] = r.phone[b]
	}
	delete(r.labels, b)
	delete(r.labelRanks, b)
	delete(r.customerID, b)
	delete(r.phone, b)

	return a
}

// mint creates a new cluster keyed by the record's strongest identifier,
// falling back to an anonymous key derived from the conversation ID so that
// signal-less records still get a visible bucket.
func (r *resolver) mint(x *model.Interaction) types.CustomerKey {
	var key types.CustomerKey
	switch {
	case x.CustomerID != "":
		key = types.CustomerKey(sanitizeKeyPart(x.CustomerID))
	case x.Phone != "":
		key = types.CustomerKey(sanitizeKeyPart(x.Phone))
	case x.Email != "":
		key = types.CustomerKey(sanitizeKeyPart(x.Email))
	case x.SessionID != "":
		key = types.CustomerKey("session_" + sanitizeKeyPart(x.SessionID))
	default:
		key = anonymousKey(x.ConversationID)
	}

	// Distinct identifiers can sanitize to the same key; reuse the
	// existing cluster instead of resetting it.
	if _, ok := r.parent[key]; ok {
		return r.find(key)
	}

	r.parent[key] = key
	r.size[key] = 0
	return key
}

// adoptIdentity upgrades the cluster's display identity from the record.
// Stronger identifiers win; the first seen wins within a strength.
func (r *resolver) adoptIdentity(root types.CustomerKey, x *model.Interaction) {
	rank, label := rankNone, ""
	switch {
	case x.CustomerID != "":
		rank, label = rankCustomerID, x.CustomerID
	case x.Phone != "":
		rank, label = rankPhone, x.Phone
	case x.Email != "":
		rank, label = rankEmail, x.Email
	}
	if rank > r.labelRanks[root] {
		r.labels[root] = label
		r.labelRanks[root] = rank
	}
	if r.customerID[root] == "" && x.CustomerID != "" {
		r.customerID[root] = x.CustomerID
	}
	if r.phone[root] == "" && x.Phone != "" {
		r.phone[root] = x.Phone
	}
}

func anonymousKey(conversationID types.ConversationID) types.CustomerKey {
	slice := sanitizeKeyPart(conversationID.String())
	if len(slice) > 12 {
		slice = slice[:12]
	}
	if slice == "" {
		slice = "unknown"
	}
	return types.CustomerKey("anon_" + strings.ToLower(slice))
}

func sanitizeKeyPart(s string) string {
	return keySanitizer.ReplaceAllString(strings.TrimSpace(s), "")
}
