package interfaces

// Repository defines the interface for raw interaction record persistence.
// Records are stored exactly as the producing channels submitted them;
// normalization and identity resolution happen at read time in the engine.
type Repository interface {
	Interaction() InteractionRepository

	// Close releases backend resources
	Close() error
}
