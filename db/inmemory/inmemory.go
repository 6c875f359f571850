// Package inmemory implements an ephemeral db.Database, used by tests and by
// short-lived tooling that does not need persistence.
package inmemory

import (
	"bytes"
	"slices"
	"sync"

	"github.com/veilswap/veilswap-node/db"
)

// InMemoryDB implements an ephemeral in-memory db.Database.
type InMemoryDB struct {
	mu      sync.RWMutex
	data    map[string][]byte
	version uint64
}

var _ db.Database = (*InMemoryDB)(nil)

// New returns a new in-memory database. Options are ignored.
func New(_ db.Options) (*InMemoryDB, error) {
	return &InMemoryDB{data: make(map[string][]byte)}, nil
}

func (d *InMemoryDB) Close() error {
	return nil
}

func (d *InMemoryDB) Compact() error {
	return nil
}

func (d *InMemoryDB) Get(key []byte) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	value, ok := d.data[string(key)]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return bytes.Clone(value), nil
}

func (d *InMemoryDB) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	d.mu.RLock()
	snapshot := d.snapshot(prefix)
	d.mu.RUnlock()
	iterateSorted(snapshot, callback)
	return nil
}

func (d *InMemoryDB) WriteTx() db.WriteTx {
	d.mu.RLock()
	baseVersion := d.version
	d.mu.RUnlock()
	return &writeTx{
		db:          d,
		writes:      make(map[string]*[]byte),
		baseVersion: baseVersion,
	}
}

// snapshot returns a copy of all live entries with the given prefix.
// Callers must hold at least a read lock.
func (d *InMemoryDB) snapshot(prefix []byte) map[string][]byte {
	entries := make(map[string][]byte, len(d.data))
	for k, v := range d.data {
		if !bytes.HasPrefix([]byte(k), prefix) {
			continue
		}
		entries[k] = bytes.Clone(v)
	}
	return entries
}

type writeTx struct {
	db          *InMemoryDB
	writes      map[string]*[]byte // nil value means delete
	baseVersion uint64
	committed   bool
	discarded   bool
}

var _ db.WriteTx = (*writeTx)(nil)

func (tx *writeTx) Get(key []byte) ([]byte, error) {
	if pending, ok := tx.writes[string(key)]; ok {
		if pending == nil {
			return nil, db.ErrKeyNotFound
		}
		return bytes.Clone(*pending), nil
	}
	return tx.db.Get(key)
}

func (tx *writeTx) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	tx.db.mu.RLock()
	entries := tx.db.snapshot(prefix)
	tx.db.mu.RUnlock()

	for k, v := range tx.writes {
		if !bytes.HasPrefix([]byte(k), prefix) {
			continue
		}
		if v == nil {
			delete(entries, k)
			continue
		}
		entries[k] = bytes.Clone(*v)
	}
	iterateSorted(entries, callback)
	return nil
}

func (tx *writeTx) Set(key, value []byte) error {
	valCopy := bytes.Clone(value)
	tx.writes[string(key)] = &valCopy
	return nil
}

func (tx *writeTx) Delete(key []byte) error {
	tx.writes[string(key)] = nil
	return nil
}

func (tx *writeTx) Apply(other db.WriteTx) error {
	return other.Iterate(nil, func(k, v []byte) bool {
		return tx.Set(k, v) == nil
	})
}

func (tx *writeTx) Commit() error {
	if tx.committed || tx.discarded {
		return db.ErrTxClosed
	}
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()

	// Optimistic concurrency: any commit since the transaction started
	// invalidates it, the caller must retry.
	if tx.db.version != tx.baseVersion {
		return db.ErrConflict
	}
	for key, value := range tx.writes {
		if value == nil {
			delete(tx.db.data, key)
			continue
		}
		tx.db.data[key] = *value
	}
	tx.db.version++
	tx.committed = true
	return nil
}

func (tx *writeTx) Discard() {
	tx.writes = map[string]*[]byte{}
	tx.discarded = true
}

func iterateSorted(entries map[string][]byte, callback func(key, value []byte) bool) {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if !callback([]byte(key), entries[key]) {
			return
		}
	}
}
