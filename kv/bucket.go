// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import "github.com/syndtr/goleveldb/leveldb/util"

// Bucket is a key prefix carving a logical namespace out of a store,
// so registry state and node metadata can share one database.
type Bucket string

// NewStore creates a bucket view over the source store.
// Closing the view is a no-op; the owner closes the backing store.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{src, []byte(b)}
}

type bucketStore struct {
	src    Store
	prefix []byte
}

func (s *bucketStore) key(k []byte) []byte {
	return append(append(make([]byte, 0, len(s.prefix)+len(k)), s.prefix...), k...)
}

func (s *bucketStore) Get(key []byte) ([]byte, error) { return s.src.Get(s.key(key)) }
func (s *bucketStore) Has(key []byte) (bool, error)   { return s.src.Has(s.key(key)) }
func (s *bucketStore) IsNotFound(err error) bool      { return s.src.IsNotFound(err) }
func (s *bucketStore) Put(key, val []byte) error      { return s.src.Put(s.key(key), val) }
func (s *bucketStore) Delete(key []byte) error        { return s.src.Delete(s.key(key)) }
func (s *bucketStore) Close() error                   { return nil }

func (s *bucketStore) NewBatch() Batch {
	return &bucketBatch{s.src.NewBatch(), s.prefix}
}

func (s *bucketStore) Iterate(r Range) Iterator {
	bucketRange := Range{
		Start: append(append([]byte(nil), s.prefix...), r.Start...),
	}
	if len(r.Limit) == 0 {
		bucketRange.Limit = util.BytesPrefix(s.prefix).Limit
	} else {
		bucketRange.Limit = append(append([]byte(nil), s.prefix...), r.Limit...)
	}
	return &bucketIterator{s.src.Iterate(bucketRange), len(s.prefix)}
}

type bucketBatch struct {
	src    Batch
	prefix []byte
}

func (b *bucketBatch) key(k []byte) []byte {
	return append(append(make([]byte, 0, len(b.prefix)+len(k)), b.prefix...), k...)
}

func (b *bucketBatch) Put(key, val []byte) error { return b.src.Put(b.key(key), val) }
func (b *bucketBatch) Delete(key []byte) error   { return b.src.Delete(b.key(key)) }
func (b *bucketBatch) Len() int                  { return b.src.Len() }
func (b *bucketBatch) Write() error              { return b.src.Write() }

type bucketIterator struct {
	src       Iterator
	prefixLen int
}

func (i *bucketIterator) Next() bool    { return i.src.Next() }
func (i *bucketIterator) Key() []byte   { return i.src.Key()[i.prefixLen:] }
func (i *bucketIterator) Value() []byte { return i.src.Value() }
func (i *bucketIterator) Release()      { i.src.Release() }
func (i *bucketIterator) Error() error  { return i.src.Error() }
