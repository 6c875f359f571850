// Package db defines the key-value database abstraction used by the veilswap
// node. Implementations live in the pebbledb and inmemory subpackages; the
// prefixeddb subpackage provides namespacing on top of any implementation.
package db

import "errors"

var (
	// ErrKeyNotFound is returned when the key is not found in the database.
	ErrKeyNotFound = errors.New("key not found")
	// ErrConflict is returned by Commit when the transaction conflicts with
	// a concurrent write and must be retried by the caller.
	ErrConflict = errors.New("transaction conflict")
	// ErrTxClosed is returned when operating on an already committed or
	// discarded transaction.
	ErrTxClosed = errors.New("transaction already committed or discarded")
)

// Options contains the common options for opening a database.
type Options struct {
	Path string
}

// Reader is the read-only subset shared by Database and WriteTx.
type Reader interface {
	// Get retrieves the value for the given key. Returns ErrKeyNotFound if
	// the key does not exist.
	Get(key []byte) ([]byte, error)
	// Iterate calls callback with all key-value pairs whose key starts with
	// prefix, in lexicographic key order. The iteration stops when the
	// callback returns false. The callback must not retain the slices.
	Iterate(prefix []byte, callback func(key, value []byte) bool) error
}

// Database is a persistent key-value store with atomic write transactions.
type Database interface {
	Reader
	// WriteTx creates a new write transaction. It must be committed or
	// discarded by the caller.
	WriteTx() WriteTx
	// Close closes the database and releases its resources.
	Close() error
	// Compact performs a database compaction, if supported.
	Compact() error
}

// WriteTx is a set of writes applied atomically on Commit. Reads through the
// transaction observe its own pending writes.
type WriteTx interface {
	Reader
	// Set adds or updates a key-value pair in the transaction.
	Set(key, value []byte) error
	// Delete removes a key from the transaction.
	Delete(key []byte) error
	// Apply copies all pending writes from the given transaction.
	Apply(other WriteTx) error
	// Commit applies all pending writes atomically.
	Commit() error
	// Discard drops the pending writes. Calling Discard after Commit is a
	// no-op, so it is safe to defer.
	Discard()
}
