package database

import (
	"errors"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/samber/lo"
)

var (
	// ErrReadOnlyTxn is returned when a write is attempted on a read-only
	// transaction.
	ErrReadOnlyTxn = errors.New("write on read-only transaction")

	// ErrTxnDone is returned when a transaction is used after Commit or Abort.
	ErrTxnDone = errors.New("transaction already finished")
)

// Store is the data source a provider runs transactions against.
type Store interface {
	// Txn begins a transaction. Writes stay invisible to later transactions
	// until Commit; Abort discards them.
	Txn(write bool) (Txn, error)
}

// Txn is a single store transaction. The shape follows go-memdb so backends
// can be swapped without touching the provider.
type Txn interface {
	First(key string) (value any, ok bool, err error)
	Insert(key string, value any) error
	Delete(key string) error
	Commit() error
	Abort()
}

// NullStore is the stub data source: every lookup comes up empty and writes
// go nowhere. It exists so compositions can be exercised without any real
// storage behind them.
type NullStore struct{}

func NewNullStore() NullStore { return NullStore{} }

func (NullStore) Txn(bool) (Txn, error) { return nullTxn{}, nil }

type nullTxn struct{}

func (nullTxn) First(string) (any, bool, error) { return nil, false, nil }
func (nullTxn) Insert(string, any) error        { return nil }
func (nullTxn) Delete(string) error             { return nil }
func (nullTxn) Commit() error                   { return nil }
func (nullTxn) Abort()                          {}

// ShardedStore is an in-memory key-value store. Keys are spread over a fixed
// number of shards by xxhash so committed reads only contend per shard.
// Write transactions buffer their operations and apply them on Commit.
type ShardedStore struct {
	shards []*shard
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewShardedStore creates a store with numShards shards.
// Panics if numShards is not positive.
func NewShardedStore(numShards int) *ShardedStore {
	if numShards <= 0 {
		panic("numShards should be greater than 0")
	}
	shards := make([]*shard, numShards)
	for i := range shards {
		shards[i] = &shard{entries: map[string]any{}}
	}
	return &ShardedStore{shards: shards}
}

func (s *ShardedStore) shardFor(key string) *shard {
	return s.shards[xxhash.Sum64String(key)%uint64(len(s.shards))]
}

// Keys returns every committed key, in no particular order.
func (s *ShardedStore) Keys() []string {
	var keys []string
	for _, sh := range s.shards {
		sh.mu.RLock()
		keys = append(keys, lo.Keys(sh.entries)...)
		sh.mu.RUnlock()
	}
	return keys
}

func (s *ShardedStore) Txn(write bool) (Txn, error) {
	return &shardedTxn{store: s, write: write}, nil
}

// pendingOp is a buffered write; a nil value marks a deletion.
type pendingOp struct {
	key     string
	value   any
	deleted bool
}

type shardedTxn struct {
	store *ShardedStore
	write bool
	done  bool
	ops   []pendingOp
}

func (t *shardedTxn) First(key string) (any, bool, error) {
	if t.done {
		return nil, false, ErrTxnDone
	}
	// Own uncommitted writes win over the committed state, latest first.
	for i := len(t.ops) - 1; i >= 0; i-- {
		if t.ops[i].key == key {
			if t.ops[i].deleted {
				return nil, false, nil
			}
			return t.ops[i].value, true, nil
		}
	}
	sh := t.store.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	v, ok := sh.entries[key]
	return v, ok, nil
}

func (t *shardedTxn) Insert(key string, value any) error {
	if t.done {
		return ErrTxnDone
	}
	if !t.write {
		return ErrReadOnlyTxn
	}
	t.ops = append(t.ops, pendingOp{key: key, value: value})
	return nil
}

func (t *shardedTxn) Delete(key string) error {
	if t.done {
		return ErrTxnDone
	}
	if !t.write {
		return ErrReadOnlyTxn
	}
	t.ops = append(t.ops, pendingOp{key: key, deleted: true})
	return nil
}

func (t *shardedTxn) Commit() error {
	if t.done {
		return ErrTxnDone
	}
	t.done = true
	for _, op := range t.ops {
		sh := t.store.shardFor(op.key)
		sh.mu.Lock()
		if op.deleted {
			delete(sh.entries, op.key)
		} else {
			sh.entries[op.key] = op.value
		}
		sh.mu.Unlock()
	}
	return nil
}

func (t *shardedTxn) Abort() {
	t.done = true
	t.ops = nil
}
