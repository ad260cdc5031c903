package store

// Store is a durable keyed persistence surface. Every operation is
// durable before it returns; there is no buffering layer that can lose
// an acknowledged write. Single-key operations are atomic, nothing
// above that: callers must not assume cross-key transactions.
type Store interface {
	// Put upserts value under key. Re-invoking with identical content
	// succeeds idempotently.
	Put(key, value string) error

	// Get returns the stored value. Absence is reported through the
	// bool, not through an error.
	Get(key string) (value string, found bool, err error)

	// ListKeys returns all keys sharing prefix. Order is not guaranteed.
	ListKeys(prefix string) ([]string, error)

	// Delete removes a record. Deleting an absent key is not an error.
	Delete(key string) error

	// Ping verifies the backing file is reachable.
	Ping() error

	Close() error
}
