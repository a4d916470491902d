// Package sqlite provides a single-file repository backend using the pure
// Go modernc.org/sqlite driver, so deployments without Firestore access can
// still persist interaction records.
package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/goldenoak/threadline/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = interfaces.ErrInteractionNotFound

const schema = `
CREATE TABLE IF NOT EXISTS interactions (
	conversation_id TEXT PRIMARY KEY,
	record          TEXT NOT NULL,
	stored_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite is a single-file implementation of interfaces.Repository
type SQLite struct {
	db          *sql.DB
	interaction *interactionRepository
}

var _ interfaces.Repository = &SQLite{}

// New opens (or creates) the database at path and prepares the schema.
// Pass ":memory:" for an in-memory database (used by tests).
func New(path string) (*SQLite, error) {
	dsn := path
	if dsn != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, goerr.Wrap(err, "failed to create database directory", goerr.V("dir", dir))
			}
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}

	// Single connection avoids "database is locked" errors with this driver
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to set busy timeout")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to prepare schema")
	}

	return &SQLite{
		db:          db,
		interaction: &interactionRepository{db: db},
	}, nil
}

func (s *SQLite) Interaction() interfaces.InteractionRepository {
	return s.interaction
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
