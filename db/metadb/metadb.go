// Package metadb instantiates a db.Database by backend name, so callers can
// select the storage engine from configuration.
package metadb

import (
	"fmt"

	"github.com/veilswap/veilswap-node/db"
	"github.com/veilswap/veilswap-node/db/inmemory"
	"github.com/veilswap/veilswap-node/db/pebbledb"
)

const (
	// TypePebble selects the persistent pebble backend.
	TypePebble = "pebble"
	// TypeInMemory selects the ephemeral in-memory backend.
	TypeInMemory = "inmemory"
)

// New returns a new database of the given type rooted at path. The path is
// ignored by the in-memory backend.
func New(typ, path string) (db.Database, error) {
	switch typ {
	case TypePebble:
		return pebbledb.New(db.Options{Path: path})
	case TypeInMemory:
		return inmemory.New(db.Options{Path: path})
	default:
		return nil, fmt.Errorf("unknown database type %q", typ)
	}
}
