// Package firestore provides the Firestore repository backend used in
// production deployments.
package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/goldenoak/threadline/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = interfaces.ErrInteractionNotFound

// Firestore is a Firestore-backed implementation of interfaces.Repository
type Firestore struct {
	client      *firestore.Client
	interaction *interactionRepository
}

var _ interfaces.Repository = &Firestore{}

// Option configures the Firestore repository
type Option func(*Firestore)

// WithCollectionPrefix prefixes all collection names, so multiple
// environments can share one database.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.interaction.collectionPrefix = prefix
	}
}

// New creates a Firestore repository for the given project and database.
// An empty databaseID selects the default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID),
		)
	}

	f := &Firestore{
		client:      client,
		interaction: &interactionRepository{client: client},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Firestore) Interaction() interfaces.InteractionRepository {
	return f.interaction
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
