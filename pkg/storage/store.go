package storage

// Store is the transactional persistence interface for the engine.
// Every engine operation runs inside exactly one Update or View call, so a
// failure at any point rolls the whole operation back.
type Store interface {
	// Update runs fn in a read-write transaction. The transaction commits
	// when fn returns nil and rolls back otherwise.
	Update(fn func(tx *Tx) error) error

	// View runs fn in a read-only transaction.
	View(fn func(tx *Tx) error) error

	// Utility
	Close() error
}
