package memory

import (
	"context"
	"sync"

	"github.com/goldenoak/threadline/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type interactionRepository struct {
	mu      sync.RWMutex
	records map[types.ConversationID]map[string]any
	order   []types.ConversationID
}

func newInteractionRepository() *interactionRepository {
	return &interactionRepository{
		records: make(map[types.ConversationID]map[string]any),
	}
}

// copyRecord creates a deep copy of a raw record so callers can never
// mutate stored state through a returned map.
func copyRecord(record map[string]any) map[string]any {
	copied := make(map[string]any, len(record))
	for k, v := range record {
		copied[k] = copyValue(v)
	}
	return copied
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyRecord(val)
	case []any:
		s := make([]any, len(val))
		for i, item := range val {
			s[i] = copyValue(item)
		}
		return s
	default:
		return val
	}
}

func (r *interactionRepository) Put(ctx context.Context, id types.ConversationID, record map[string]any) error {
	if id == "" {
		return goerr.New("conversation ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[id]; !exists {
		r.order = append(r.order, id)
	}
	r.records[id] = copyRecord(record)
	return nil
}

func (r *interactionRepository) Get(ctx context.Context, id types.ConversationID) (map[string]any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "interaction not found", goerr.V("conversation_id", id))
	}
	return copyRecord(record), nil
}

func (r *interactionRepository) List(ctx context.Context) ([]map[string]any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]map[string]any, 0, len(r.order))
	for _, id := range r.order {
		if record, exists := r.records[id]; exists {
			records = append(records, copyRecord(record))
		}
	}
	return records, nil
}

func (r *interactionRepository) Delete(ctx context.Context, id types.ConversationID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[id]; !exists {
		return goerr.Wrap(ErrNotFound, "interaction not found", goerr.V("conversation_id", id))
	}

	delete(r.records, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
