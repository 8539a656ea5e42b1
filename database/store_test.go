package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/composably/unitwork/database"
)

func TestShardedStore_WritesVisibleOnlyAfterCommit(t *testing.T) {
	store := database.NewShardedStore(4)

	w, err := store.Txn(true)
	require.NoError(t, err)
	require.NoError(t, w.Insert("k", "v"))

	// Uncommitted write is visible inside its own transaction...
	v, ok, err := w.First("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", v)

	// ...but not to a concurrent reader.
	r, err := store.Txn(false)
	require.NoError(t, err)
	_, ok, err = r.First("k")
	require.NoError(t, err)
	assert.False(t, ok)
	r.Abort()

	require.NoError(t, w.Commit())

	r2, err := store.Txn(false)
	require.NoError(t, err)
	v, ok, err = r2.First("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", v)
	r2.Abort()
}

func TestShardedStore_AbortDiscardsWrites(t *testing.T) {
	store := database.NewShardedStore(4)

	w, err := store.Txn(true)
	require.NoError(t, err)
	require.NoError(t, w.Insert("k", "v"))
	w.Abort()

	r, err := store.Txn(false)
	require.NoError(t, err)
	_, ok, err := r.First("k")
	require.NoError(t, err)
	assert.False(t, ok)
	r.Abort()

	assert.Empty(t, store.Keys())
}

func TestShardedStore_DeleteShadowsEarlierInsert(t *testing.T) {
	store := database.NewShardedStore(2)

	w, err := store.Txn(true)
	require.NoError(t, err)
	require.NoError(t, w.Insert("k", 1))
	require.NoError(t, w.Delete("k"))

	_, ok, err := w.First("k")
	require.NoError(t, err)
	assert.False(t, ok, "the latest buffered op wins")
	require.NoError(t, w.Commit())

	assert.Empty(t, store.Keys())
}

func TestShardedStore_ReadOnlyTxnRejectsWrites(t *testing.T) {
	store := database.NewShardedStore(2)

	r, err := store.Txn(false)
	require.NoError(t, err)
	assert.ErrorIs(t, r.Insert("k", 1), database.ErrReadOnlyTxn)
	assert.ErrorIs(t, r.Delete("k"), database.ErrReadOnlyTxn)
	r.Abort()
}

func TestShardedStore_FinishedTxnRejectsUse(t *testing.T) {
	store := database.NewShardedStore(2)

	w, err := store.Txn(true)
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	assert.ErrorIs(t, w.Insert("k", 1), database.ErrTxnDone)
	assert.ErrorIs(t, w.Commit(), database.ErrTxnDone)
	_, _, err = w.First("k")
	assert.ErrorIs(t, err, database.ErrTxnDone)
}

func TestShardedStore_PanicsOnNonPositiveShards(t *testing.T) {
	assert.Panics(t, func() { database.NewShardedStore(0) })
}

func TestNullStore_FindsNothingAndKeepsNothing(t *testing.T) {
	store := database.NewNullStore()

	w, err := store.Txn(true)
	require.NoError(t, err)
	require.NoError(t, w.Insert("k", "v"))
	require.NoError(t, w.Commit())

	r, err := store.Txn(false)
	require.NoError(t, err)
	_, ok, err := r.First("k")
	require.NoError(t, err)
	assert.False(t, ok)
	r.Abort()
}
