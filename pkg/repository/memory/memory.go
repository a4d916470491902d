// Package memory provides an in-memory repository backend for development
// and tests.
package memory

import (
	"github.com/goldenoak/threadline/pkg/domain/interfaces"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = interfaces.ErrInteractionNotFound

// Memory is an in-memory implementation of interfaces.Repository
type Memory struct {
	interaction *interactionRepository
}

var _ interfaces.Repository = &Memory{}

// New creates an empty in-memory repository
func New() *Memory {
	return &Memory{
		interaction: newInteractionRepository(),
	}
}

func (m *Memory) Interaction() interfaces.InteractionRepository {
	return m.interaction
}

func (m *Memory) Close() error {
	return nil
}
