// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore(t *testing.T) {
	store := NewMem()
	defer store.Close()

	_, err := store.Get([]byte("k"))
	assert.True(t, store.IsNotFound(err))

	require.NoError(t, store.Put([]byte("k"), []byte("v")))
	v, err := store.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	has, err := store.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, store.Delete([]byte("k")))
	_, err = store.Get([]byte("k"))
	assert.True(t, store.IsNotFound(err))
}

func TestBatch(t *testing.T) {
	store := NewMem()
	defer store.Close()

	batch := store.NewBatch()
	require.NoError(t, batch.Put([]byte("a"), []byte("1")))
	require.NoError(t, batch.Put([]byte("b"), []byte("2")))

	// nothing visible until the batch is written
	_, err := store.Get([]byte("a"))
	assert.True(t, store.IsNotFound(err))

	require.NoError(t, batch.Write())
	v, err := store.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)
}

func TestBucket(t *testing.T) {
	store := NewMem()
	defer store.Close()

	b1 := Bucket("b1").NewStore(store)
	b2 := Bucket("b2").NewStore(store)

	require.NoError(t, b1.Put([]byte("k"), []byte("1")))
	require.NoError(t, b2.Put([]byte("k"), []byte("2")))

	v, err := b1.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)
	v, err = b2.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)

	it := b1.Iterate(Range{})
	defer it.Release()
	require.True(t, it.Next())
	assert.Equal(t, []byte("k"), it.Key())
	assert.Equal(t, []byte("1"), it.Value())
	assert.False(t, it.Next())
}

func TestCachedStore(t *testing.T) {
	store := NewCachedStore(NewMem(), 16)
	defer store.Close()

	require.NoError(t, store.Put([]byte("k"), []byte("1")))
	v, err := store.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	// batched writes must not leave stale cache entries behind
	batch := store.NewBatch()
	require.NoError(t, batch.Put([]byte("k"), []byte("2")))
	require.NoError(t, batch.Write())

	v, err = store.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)

	require.NoError(t, store.Delete([]byte("k")))
	_, err = store.Get([]byte("k"))
	assert.True(t, store.IsNotFound(err))
}
