package usecase

import (
	"context"
	"time"

	"github.com/goldenoak/threadline/pkg/domain/interfaces"
	"github.com/goldenoak/threadline/pkg/domain/types"
	"github.com/goldenoak/threadline/pkg/engine"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// IngestUseCase accepts raw interaction records from the producing
// channels and stores them as-is. Records are only normalized at read
// time, so a stored record survives later normalizer improvements.
type IngestUseCase struct {
	repo interfaces.Repository
}

func NewIngestUseCase(repo interfaces.Repository) *IngestUseCase {
	return &IngestUseCase{repo: repo}
}

// Ingest validates and stores one raw record, returning the conversation
// ID it was stored under. A record missing a conversation ID is assigned
// one: the web chat widget posts before its session is persisted, and the
// engine needs a stable unique key.
func (uc *IngestUseCase) Ingest(ctx context.Context, raw map[string]any) (types.ConversationID, error) {
	if len(raw) == 0 {
		return "", goerr.Wrap(ErrInvalidRecord, "record is empty")
	}

	id := engine.ConversationIDOf(raw)
	if id == "" {
		id = types.ConversationID("web_" + uuid.NewString())
		raw["conversation_id"] = id.String()
	}

	if engine.Normalize(raw, time.Now().UTC()) == nil {
		return "", goerr.Wrap(ErrInvalidRecord, "record cannot be normalized", goerr.V(ConversationIDKey, id))
	}

	if err := uc.repo.Interaction().Put(ctx, id, raw); err != nil {
		return "", goerr.Wrap(err, "failed to store interaction record", goerr.V(ConversationIDKey, id))
	}
	return id, nil
}

// IngestBatch stores multiple raw records, failing on the first invalid one
func (uc *IngestUseCase) IngestBatch(ctx context.Context, raws []map[string]any) ([]types.ConversationID, error) {
	ids := make([]types.ConversationID, 0, len(raws))
	for _, raw := range raws {
		id, err := uc.Ingest(ctx, raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
