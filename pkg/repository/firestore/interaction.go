package firestore

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/goldenoak/threadline/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type interactionRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

// interactionDoc is the Firestore document shape. The raw record is stored
// as a JSON string: raw records have no guaranteed types, and Firestore
// rejects heterogeneous nested values that JSON happily carries.
type interactionDoc struct {
	ConversationID string    `firestore:"conversation_id"`
	Record         string    `firestore:"record"`
	StoredAt       time.Time `firestore:"stored_at"`
}

func (r *interactionRepository) collection() string {
	return r.collectionPrefix + "interactions"
}

func (r *interactionRepository) Put(ctx context.Context, id types.ConversationID, record map[string]any) error {
	if id == "" {
		return goerr.New("conversation ID is required")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal record", goerr.V("conversation_id", id))
	}

	docRef := r.client.Collection(r.collection()).Doc(id.String())

	// Replacing a record keeps its original arrival position
	storedAt := time.Now().UTC()
	if snap, err := docRef.Get(ctx); err == nil {
		var existing interactionDoc
		if err := snap.DataTo(&existing); err == nil && !existing.StoredAt.IsZero() {
			storedAt = existing.StoredAt
		}
	} else if status.Code(err) != codes.NotFound {
		return goerr.Wrap(err, "failed to check existing interaction", goerr.V("conversation_id", id))
	}

	_, err = docRef.Set(ctx, &interactionDoc{
		ConversationID: id.String(),
		Record:         string(data),
		StoredAt:       storedAt,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to store interaction", goerr.V("conversation_id", id))
	}
	return nil
}

func (r *interactionRepository) Get(ctx context.Context, id types.ConversationID) (map[string]any, error) {
	snap, err := r.client.Collection(r.collection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "interaction not found", goerr.V("conversation_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get interaction", goerr.V("conversation_id", id))
	}
	return decodeDoc(snap)
}

func (r *interactionRepository) List(ctx context.Context) ([]map[string]any, error) {
	iter := r.client.Collection(r.collection()).
		OrderBy("stored_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var records []map[string]any
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate interactions")
		}
		record, err := decodeDoc(snap)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (r *interactionRepository) Delete(ctx context.Context, id types.ConversationID) error {
	docRef := r.client.Collection(r.collection()).Doc(id.String())
	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "interaction not found", goerr.V("conversation_id", id))
		}
		return goerr.Wrap(err, "failed to check interaction", goerr.V("conversation_id", id))
	}
	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete interaction", goerr.V("conversation_id", id))
	}
	return nil
}

func decodeDoc(snap *firestore.DocumentSnapshot) (map[string]any, error) {
	var doc interactionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode interaction document", goerr.V("doc_id", snap.Ref.ID))
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(doc.Record), &record); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal stored record", goerr.V("doc_id", snap.Ref.ID))
	}
	return record, nil
}
