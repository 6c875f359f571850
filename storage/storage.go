/*
Package storage provides the persistent registry layer of the swap node.

# Storage Organization

The storage uses a key-value database with prefixed namespaces to organize
different types of data:

## Swap Configuration
  - sc/ : swapConfigID → SwapConfig (input asset and fixed denomination)

## Nullifier Registries
  - sr/ : nullifierHash → SwapResult (output asset and amount, written once
    by the swap phase)
  - cn/ : nullifierHash → consumed marker (written once by the withdraw
    phase; once present, withdrawal is permanently rejected)

## Event Logs
  - dl/ : leafIndex → DepositEvent (the only way to map a commitment back to
    its leaf index after the fact)
  - se/ : nullifierHash → SwapRecordedEvent
  - we/ : nullifierHash → WithdrawalEvent

## Separate Databases
  - mt_ : prefix for the merkle accumulator database
*/
package storage

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/veilswap/veilswap-node/db"
	"github.com/veilswap/veilswap-node/db/prefixeddb"
	"github.com/veilswap/veilswap-node/log"
)

var (
	// ErrKeyAlreadyExists is returned when a write-once key is written twice.
	ErrKeyAlreadyExists = errors.New("key already exists")
	// ErrNotFound is returned when an artifact is not in the storage.
	ErrNotFound = errors.New("not found")
	// ErrAlreadySwapped is returned when a nullifier hash already has a
	// recorded swap result.
	ErrAlreadySwapped = errors.New("nullifier hash already swapped")
	// ErrAlreadyWithdrawn is returned when a nullifier hash was already
	// consumed by a withdrawal.
	ErrAlreadyWithdrawn = errors.New("nullifier hash already withdrawn")
	// ErrNoSwapResult is returned when a withdrawal is attempted for a
	// nullifier hash that was never swapped.
	ErrNoSwapResult = errors.New("no swap result for nullifier hash")

	// Prefixes
	swapConfigPrefix      = []byte("sc/")
	swapResultPrefix      = []byte("sr/")
	consumedPrefix        = []byte("cn/")
	depositLogPrefix      = []byte("dl/")
	swapEventPrefix       = []byte("se/")
	withdrawalEventPrefix = []byte("we/")
	treeDBprefix          = []byte("mt_")
)

// Storage manages the swap registries and event logs over a shared database.
type Storage struct {
	db         db.Database
	treeDB     db.Database
	globalLock sync.Mutex              // Lock for atomic check-then-set operations
	cache      *lru.Cache[string, any] // Cache for artifacts
}

// New creates a new Storage instance over the given database.
func New(database db.Database) *Storage {
	cache, err := lru.New[string, any](1000)
	if err != nil {
		log.Fatalf("failed to create LRU cache: %v", err)
	}
	return &Storage{
		db:     database,
		treeDB: prefixeddb.NewPrefixedDatabase(database, treeDBprefix),
		cache:  cache,
	}
}

// TreeDB returns the database namespace reserved for the merkle accumulator.
func (s *Storage) TreeDB() db.Database {
	return s.treeDB
}

// Close closes the underlying database.
func (s *Storage) Close() {
	if err := s.db.Close(); err != nil {
		log.Warnw("failed to close storage database", "error", err)
	}
}

func (s *Storage) deleteArtifact(prefix, key []byte) error {
	wTx := prefixeddb.NewPrefixedDatabase(s.db, prefix).WriteTx()
	defer wTx.Discard()
	if err := wTx.Delete(key); err != nil {
		return err
	}
	return wTx.Commit()
}

// setArtifact helper function stores any kind of artifact in the storage. It
// receives the prefix of the key, the key itself and the artifact to store.
func (s *Storage) setArtifact(prefix []byte, key []byte, artifact any) error {
	data, err := EncodeArtifact(artifact)
	if err != nil {
		return err
	}
	wTx := prefixeddb.NewPrefixedDatabase(s.db, prefix).WriteTx()
	defer wTx.Discard()
	if err := wTx.Set(key, data); err != nil {
		return err
	}
	return wTx.Commit()
}

// getArtifact helper function retrieves any kind of artifact from the
// storage. It receives the prefix of the key and a pointer to the artifact to
// decode into.
func (s *Storage) getArtifact(prefix []byte, key []byte, out any) error {
	data, err := prefixeddb.NewPrefixedReader(s.db, prefix).Get(key)
	if err != nil {
		return ErrNotFound
	}
	if err := DecodeArtifact(data, out); err != nil {
		return fmt.Errorf("could not decode artifact: %w", err)
	}
	return nil
}

// listArtifacts retrieves all the keys for a given prefix.
func (s *Storage) listArtifacts(prefix []byte) ([][]byte, error) {
	var keys [][]byte
	if err := prefixeddb.NewPrefixedReader(s.db, prefix).Iterate(nil, func(k, _ []byte) bool {
		kcopy := make([]byte, len(k))
		copy(kcopy, k)
		keys = append(keys, kcopy)
		return true
	}); err != nil {
		return nil, err
	}
	return keys, nil
}
