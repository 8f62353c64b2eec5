// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	lru "github.com/hashicorp/golang-lru"
)

// cachedStore wraps a store with an LRU read cache. Writes go straight through
// and refresh the cached entry, so the cache never serves stale values.
type cachedStore struct {
	Store
	cache *lru.Cache
}

// NewCachedStore wraps the source store with an LRU cache of the given size.
func NewCachedStore(src Store, size int) Store {
	cache, err := lru.New(size)
	if err != nil {
		panic(err)
	}
	return &cachedStore{src, cache}
}

func (c *cachedStore) Get(key []byte) ([]byte, error) {
	if v, ok := c.cache.Get(string(key)); ok {
		return append([]byte(nil), v.([]byte)...), nil
	}
	v, err := c.Store.Get(key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(string(key), append([]byte(nil), v...))
	return v, nil
}

func (c *cachedStore) Has(key []byte) (bool, error) {
	if _, ok := c.cache.Get(string(key)); ok {
		return true, nil
	}
	return c.Store.Has(key)
}

func (c *cachedStore) Put(key, val []byte) error {
	if err := c.Store.Put(key, val); err != nil {
		return err
	}
	c.cache.Add(string(key), append([]byte(nil), val...))
	return nil
}

func (c *cachedStore) Delete(key []byte) error {
	if err := c.Store.Delete(key); err != nil {
		return err
	}
	c.cache.Remove(string(key))
	return nil
}

// NewBatch returns a batch that evicts written keys on commit, keeping the
// cache coherent with batched writes.
func (c *cachedStore) NewBatch() Batch {
	return &cachedBatch{batch: c.Store.NewBatch(), cache: c.cache}
}

type cachedBatch struct {
	batch Batch
	cache *lru.Cache
	keys  []string
}

func (b *cachedBatch) Put(key, val []byte) error {
	b.keys = append(b.keys, string(key))
	return b.batch.Put(key, val)
}

func (b *cachedBatch) Delete(key []byte) error {
	b.keys = append(b.keys, string(key))
	return b.batch.Delete(key)
}

func (b *cachedBatch) Len() int { return b.batch.Len() }

func (b *cachedBatch) Write() error {
	if err := b.batch.Write(); err != nil {
		return err
	}
	for _, k := range b.keys {
		b.cache.Remove(k)
	}
	return nil
}
