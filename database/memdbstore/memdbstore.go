// Package memdbstore backs a provider with hashicorp/go-memdb, so commits
// and aborts ride on real MVCC transactions instead of the buffered shards
// of the in-memory store.
package memdbstore

import (
	memdb "github.com/hashicorp/go-memdb"

	"github.com/composably/unitwork/database"
	"github.com/composably/unitwork/shared/helper"
)

const (
	table = "kv"
	index = "id"
)

type entry struct {
	Key   string
	Value any
}

type Store struct {
	db *memdb.MemDB
}

// New creates a store with a single key-value table indexed by key.
func New() (*Store, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			table: {
				Name: table,
				Indexes: map[string]*memdb.IndexSchema{
					index: {
						Name:    index,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Key"},
					},
				},
			},
		},
	}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Txn(write bool) (database.Txn, error) {
	return &memTxn{txn: s.db.Txn(write)}, nil
}

type memTxn struct {
	txn *memdb.Txn
}

func (t *memTxn) First(key string) (any, bool, error) {
	raw, err := t.txn.First(table, index, key)
	if err != nil || raw == nil {
		return nil, false, err
	}
	e, ok := helper.TypedValueOk[entry](func() (any, bool) { return raw, true })
	if !ok {
		return nil, false, nil
	}
	return e.Value, true, nil
}

func (t *memTxn) Insert(key string, value any) error {
	return t.txn.Insert(table, entry{Key: key, Value: value})
}

func (t *memTxn) Delete(key string) error {
	raw, err := t.txn.First(table, index, key)
	if err != nil || raw == nil {
		return err
	}
	return t.txn.Delete(table, raw)
}

func (t *memTxn) Commit() error {
	t.txn.Commit()
	return nil
}

func (t *memTxn) Abort() {
	t.txn.Abort()
}
