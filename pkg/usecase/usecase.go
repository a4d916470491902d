package usecase

import (
	"github.com/goldenoak/threadline/pkg/domain/interfaces"
	"github.com/goldenoak/threadline/pkg/engine"
)

// UseCases bundles the application use cases over one repository
type UseCases struct {
	repo       interfaces.Repository
	engineOpts []engine.Option

	History *HistoryUseCase
	Ingest  *IngestUseCase
}

// Option configures the use case bundle
type Option func(*UseCases)

// WithEngineOptions sets default engine options (case window, intent
// rules) applied to every aggregation.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(uc *UseCases) {
		uc.engineOpts = opts
	}
}

// New creates the use case bundle
func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}
	for _, opt := range opts {
		opt(uc)
	}

	uc.History = NewHistoryUseCase(repo, uc.engineOpts...)
	uc.Ingest = NewIngestUseCase(repo)

	return uc
}
