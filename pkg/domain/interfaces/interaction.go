package interfaces

import (
	"context"

	"github.com/goldenoak/threadline/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ErrInteractionNotFound is wrapped by every backend when a requested
// record does not exist, so callers can match it regardless of backend.
var ErrInteractionNotFound = goerr.New("interaction not found")

// InteractionRepository defines the interface for raw interaction record
// access. Records are loosely-typed JSON documents keyed by conversation ID.
type InteractionRepository interface {
	// Put stores a raw record under its conversation ID, replacing any
	// existing record with the same ID
	Put(ctx context.Context, id types.ConversationID, record map[string]any) error

	// Get retrieves one raw record by conversation ID
	Get(ctx context.Context, id types.ConversationID) (map[string]any, error)

	// List retrieves all raw records in arrival order
	List(ctx context.Context) ([]map[string]any, error)

	// Delete removes a raw record by conversation ID
	Delete(ctx context.Context, id types.ConversationID) error
}
