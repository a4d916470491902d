package usecase

import (
	"context"
	"errors"

	"github.com/goldenoak/threadline/pkg/domain/interfaces"
	"github.com/goldenoak/threadline/pkg/domain/model"
	"github.com/goldenoak/threadline/pkg/domain/types"
	"github.com/goldenoak/threadline/pkg/engine"
	"github.com/m-mizutani/goerr/v2"
)

// HistoryUseCase serves the unified chat history view. Every call
// re-fetches the full record set and re-aggregates it from scratch; no
// derived state is persisted between calls.
type HistoryUseCase struct {
	repo       interfaces.Repository
	engineOpts []engine.Option
}

func NewHistoryUseCase(repo interfaces.Repository, engineOpts ...engine.Option) *HistoryUseCase {
	return &HistoryUseCase{
		repo:       repo,
		engineOpts: engineOpts,
	}
}

// ChatHistory returns the aggregated Customer → Case → Conversation view.
// windowHours overrides the default case window when positive; it is
// clamped to the allowed range by the engine.
func (uc *HistoryUseCase) ChatHistory(ctx context.Context, windowHours int) ([]*model.CustomerGroup, error) {
	raws, err := uc.repo.Interaction().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list interaction records")
	}
	return engine.Aggregate(raws, uc.callOpts(windowHours)...), nil
}

// DeleteConversation removes one conversation and returns the view
// recomputed from the remaining records. A case that becomes empty
// disappears, and so does a customer with no remaining cases.
func (uc *HistoryUseCase) DeleteConversation(ctx context.Context, id types.ConversationID, windowHours int) ([]*model.CustomerGroup, error) {
	if err := uc.repo.Interaction().Delete(ctx, id); err != nil {
		if errors.Is(err, interfaces.ErrInteractionNotFound) {
			return nil, goerr.Wrap(ErrConversationNotFound, "conversation not found", goerr.V(ConversationIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to delete interaction record", goerr.V(ConversationIDKey, id))
	}

	raws, err := uc.repo.Interaction().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list interaction records after delete")
	}
	return engine.Aggregate(raws, uc.callOpts(windowHours)...), nil
}

func (uc *HistoryUseCase) callOpts(windowHours int) []engine.Option {
	if windowHours <= 0 {
		return uc.engineOpts
	}
	opts := make([]engine.Option, 0, len(uc.engineOpts)+1)
	opts = append(opts, uc.engineOpts...)
	return append(opts, engine.WithCaseWindowHours(windowHours))
}
