// Package prefixeddb wraps a db.Database to namespace all keys under a fixed
// prefix. Several logical stores share one physical database this way.
package prefixeddb

import (
	"bytes"

	"github.com/veilswap/veilswap-node/db"
)

// PrefixedDatabase namespaces a db.Database under a fixed key prefix.
type PrefixedDatabase struct {
	db     db.Database
	prefix []byte
}

var _ db.Database = (*PrefixedDatabase)(nil)

// NewPrefixedDatabase returns a view of d where every key is transparently
// prefixed.
func NewPrefixedDatabase(d db.Database, prefix []byte) *PrefixedDatabase {
	return &PrefixedDatabase{db: d, prefix: bytes.Clone(prefix)}
}

func (d *PrefixedDatabase) Get(key []byte) ([]byte, error) {
	return d.db.Get(prefixKey(d.prefix, key))
}

func (d *PrefixedDatabase) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	full := prefixKey(d.prefix, prefix)
	return d.db.Iterate(full, func(key, value []byte) bool {
		return callback(key[len(d.prefix):], value)
	})
}

func (d *PrefixedDatabase) WriteTx() db.WriteTx {
	return NewPrefixedWriteTx(d.db.WriteTx(), d.prefix)
}

// Close closes the underlying database.
func (d *PrefixedDatabase) Close() error {
	return d.db.Close()
}

func (d *PrefixedDatabase) Compact() error {
	return d.db.Compact()
}

// PrefixedReader is a read-only prefixed view over any db.Reader.
type PrefixedReader struct {
	reader db.Reader
	prefix []byte
}

// NewPrefixedReader returns a read-only view of r where every key is
// transparently prefixed.
func NewPrefixedReader(r db.Reader, prefix []byte) *PrefixedReader {
	return &PrefixedReader{reader: r, prefix: bytes.Clone(prefix)}
}

func (r *PrefixedReader) Get(key []byte) ([]byte, error) {
	return r.reader.Get(prefixKey(r.prefix, key))
}

func (r *PrefixedReader) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	full := prefixKey(r.prefix, prefix)
	return r.reader.Iterate(full, func(key, value []byte) bool {
		return callback(key[len(r.prefix):], value)
	})
}

// PrefixedWriteTx namespaces a db.WriteTx under a fixed key prefix.
type PrefixedWriteTx struct {
	tx     db.WriteTx
	prefix []byte
}

var _ db.WriteTx = (*PrefixedWriteTx)(nil)

// NewPrefixedWriteTx returns a view of tx where every key is transparently
// prefixed.
func NewPrefixedWriteTx(tx db.WriteTx, prefix []byte) *PrefixedWriteTx {
	return &PrefixedWriteTx{tx: tx, prefix: bytes.Clone(prefix)}
}

func (t *PrefixedWriteTx) Get(key []byte) ([]byte, error) {
	return t.tx.Get(prefixKey(t.prefix, key))
}

func (t *PrefixedWriteTx) Iterate(prefix []byte, callback func(key, value []byte) bool) error {
	full := prefixKey(t.prefix, prefix)
	return t.tx.Iterate(full, func(key, value []byte) bool {
		return callback(key[len(t.prefix):], value)
	})
}

func (t *PrefixedWriteTx) Set(key, value []byte) error {
	return t.tx.Set(prefixKey(t.prefix, key), value)
}

func (t *PrefixedWriteTx) Delete(key []byte) error {
	return t.tx.Delete(prefixKey(t.prefix, key))
}

func (t *PrefixedWriteTx) Apply(other db.WriteTx) error {
	return other.Iterate(nil, func(k, v []byte) bool {
		return t.Set(k, v) == nil
	})
}

// Unwrap returns the underlying transaction, so several prefixed views can
// share a single atomic commit.
func (t *PrefixedWriteTx) Unwrap() db.WriteTx {
	return t.tx
}

func (t *PrefixedWriteTx) Commit() error {
	return t.tx.Commit()
}

func (t *PrefixedWriteTx) Discard() {
	t.tx.Discard()
}

func prefixKey(prefix, key []byte) []byte {
	out := make([]byte, 0, len(prefix)+len(key))
	out = append(out, prefix...)
	return append(out, key...)
}
