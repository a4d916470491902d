package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/goldenoak/threadline/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type interactionRepository struct {
	db *sql.DB
}

func (r *interactionRepository) Put(ctx context.Context, id types.ConversationID, record map[string]any) error {
	if id == "" {
		return goerr.New("conversation ID is required")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal record", goerr.V("conversation_id", id))
	}

	// Replacing a record keeps its original arrival position
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO interactions (conversation_id, record)
		VALUES (?, ?)
		ON CONFLICT (conversation_id) DO UPDATE SET record = excluded.record`,
		id.String(), string(data))
	if err != nil {
		return goerr.Wrap(err, "failed to store interaction", goerr.V("conversation_id", id))
	}
	return nil
}

func (r *interactionRepository) Get(ctx context.Context, id types.ConversationID) (map[string]any, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		"SELECT record FROM interactions WHERE conversation_id = ?", id.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(ErrNotFound, "interaction not found", goerr.V("conversation_id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query interaction", goerr.V("conversation_id", id))
	}
	return decodeRecord(data)
}

func (r *interactionRepository) List(ctx context.Context) ([]map[string]any, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT record FROM interactions ORDER BY rowid ASC")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list interactions")
	}
	defer rows.Close()

	var records []map[string]any
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, goerr.Wrap(err, "failed to scan interaction row")
		}
		record, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate interaction rows")
	}
	return records, nil
}

func (r *interactionRepository) Delete(ctx context.Context, id types.ConversationID) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM interactions WHERE conversation_id = ?", id.String())
	if err != nil {
		return goerr.Wrap(err, "failed to delete interaction", goerr.V("conversation_id", id))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return goerr.Wrap(err, "failed to check delete result", goerr.V("conversation_id", id))
	}
	if affected == 0 {
		return goerr.Wrap(ErrNotFound, "interaction not found", goerr.V("conversation_id", id))
	}
	return nil
}

func decodeRecord(data string) (map[string]any, error) {
	var record map[string]any
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal stored record")
	}
	return record, nil
}
