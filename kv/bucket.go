// Copyright (c) 2025 The velock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb/util"
)

// Bucket provides a logical bucket for a kv store by prefixing keys.
type Bucket string

// NewGetter creates a bucket getter from the source getter.
func (b Bucket) NewGetter(src Getter) Getter {
	return &struct {
		GetFunc
		HasFunc
		IsNotFoundFunc
	}{
		func(key []byte) ([]byte, error) {
			buf := bufPool.Get().(*buf)
			defer bufPool.Put(buf)
			buf.k = append(append(buf.k[:0], b...), key...)

			return src.Get(buf.k)
		},
		func(key []byte) (bool, error) {
			buf := bufPool.Get().(*buf)
			defer bufPool.Put(buf)
			buf.k = append(append(buf.k[:0], b...), key...)

			return src.Has(buf.k)
		},
		src.IsNotFound,
	}
}

// NewPutter creates a bucket putter from the source putter.
func (b Bucket) NewPutter(src Putter) Putter {
	return &struct {
		PutFunc
		DeleteFunc
	}{
		func(key, val []byte) error {
			buf := bufPool.Get().(*buf)
			defer bufPool.Put(buf)
			buf.k = append(append(buf.k[:0], b...), key...)

			return src.Put(buf.k, val)
		},
		func(key []byte) error {
			buf := bufPool.Get().(*buf)
			defer bufPool.Put(buf)
			buf.k = append(append(buf.k[:0], b...), key...)

			return src.Delete(buf.k)
		},
	}
}

type bucketStore struct {
	Getter
	Putter
	src Store
	b   Bucket
}

// NewStore creates a bucket store from the source store.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{
		b.NewGetter(src),
		b.NewPutter(src),
		src,
		b,
	}
}

func (s *bucketStore) NewBatch() Batch {
	batch := s.src.NewBatch()
	return &bucketBatch{s.b.NewPutter(batch), batch}
}

func (s *bucketStore) Iterate(r Range) Iterator {
	start := append([]byte(s.b), r.Start...)
	var limit []byte
	if len(r.Limit) == 0 {
		limit = util.BytesPrefix([]byte(s.b)).Limit
	} else {
		limit = append([]byte(s.b), r.Limit...)
	}
	return &bucketIterator{s.src.Iterate(Range{Start: start, Limit: limit}), len(s.b)}
}

func (s *bucketStore) Close() error {
	return s.src.Close()
}

type bucketBatch struct {
	Putter
	batch Batch
}

func (b *bucketBatch) Len() int     { return b.batch.Len() }
func (b *bucketBatch) Write() error { return b.batch.Write() }

type bucketIterator struct {
	Iterator
	prefixLen int
}

// Key strips the bucket prefix.
func (i *bucketIterator) Key() []byte {
	return i.Iterator.Key()[i.prefixLen:]
}

type buf struct {
	k []byte
}

var bufPool = sync.Pool{
	New: func() any {
		return &buf{}
	},
}
