// Package pebbledb implements db.Database on top of cockroachdb/pebble.
package pebbledb

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/veilswap/veilswap-node/db"
)

// New opens (or creates) a pebble database at opts.Path.
func New(opts db.Options) (db.Database, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("pebbledb requires a path")
	}
	pdb, err := pebble.Open(opts.Path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", opts.Path, err)
	}
	return &database{db: pdb}, nil
}

type database struct {
	db *pebble.DB
}

var _ db.Database = (*database)(nil)

func (d *database) Get(key []byte) ([]byte, error) {
	value, closer, err := d.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, db.ErrKeyNotFound
		}
		return nil, err
	}
	out := bytes.Clone(value)
	if err := closer.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *database) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	iter, err := d.db.NewIter(iterOptions(prefix))
	if err != nil {
		return err
	}
	defer func() {
		_ = iter.Close()
	}()
	for iter.First(); iter.Valid(); iter.Next() {
		if !callback(iter.Key(), iter.Value()) {
			break
		}
	}
	return iter.Error()
}

func (d *database) WriteTx() db.WriteTx {
	return &writeTx{batch: d.db.NewIndexedBatch()}
}

func (d *database) Close() error {
	return d.db.Close()
}

func (d *database) Compact() error {
	// Compact the full key range.
	return d.db.Compact(nil, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, true)
}

// iterOptions returns iterator bounds covering exactly the keys with the
// given prefix. A nil prefix iterates the whole keyspace.
func iterOptions(prefix []byte) *pebble.IterOptions {
	if len(prefix) == 0 {
		return &pebble.IterOptions{}
	}
	return &pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	}
}

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix, or nil if no such key exists (all 0xff).
func prefixUpperBound(prefix []byte) []byte {
	upper := bytes.Clone(prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}

type writeTx struct {
	batch     *pebble.Batch
	committed bool
	discarded bool
}

var _ db.WriteTx = (*writeTx)(nil)

func (tx *writeTx) Get(key []byte) ([]byte, error) {
	value, closer, err := tx.batch.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, db.ErrKeyNotFound
		}
		return nil, err
	}
	out := bytes.Clone(value)
	if err := closer.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (tx *writeTx) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	iter, err := tx.batch.NewIter(iterOptions(prefix))
	if err != nil {
		return err
	}
	defer func() {
		_ = iter.Close()
	}()
	for iter.First(); iter.Valid(); iter.Next() {
		if !callback(iter.Key(), iter.Value()) {
			break
		}
	}
	return iter.Error()
}

func (tx *writeTx) Set(key, value []byte) error {
	return tx.batch.Set(key, value, nil)
}

func (tx *writeTx) Delete(key []byte) error {
	return tx.batch.Delete(key, nil)
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
	tx.committed = true
	if err := tx.batch.Commit(pebble.Sync); err != nil {
		return err
	}
	return tx.batch.Close()
}

func (tx *writeTx) Discard() {
	if tx.committed || tx.discarded {
		return
	}
	tx.discarded = true
	_ = tx.batch.Close()
}
