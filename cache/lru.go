// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cache provides the read-through LRU sitting in front of
// persistent registry state.
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
)

// LRU an LRU cache extending golang-lru with load-through reads and
// hit/miss accounting.
type LRU struct {
	cache     *lru.Cache
	hit, miss atomic.Int64
	flag      atomic.Int32
}

// NewLRU creates an LRU cache instance.
// maxSize should be > 0, or an error is returned.
func NewLRU(maxSize int) (*LRU, error) {
	cache, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &LRU{cache: cache}, nil
}

// Loader defines the loader to load a value on cache miss.
type Loader func(key any) (any, error)

// Get looks up the key, recording the hit or miss.
func (l *LRU) Get(key any) (any, bool) {
	v, ok := l.cache.Get(key)
	if ok {
		l.hit.Add(1)
	} else {
		l.miss.Add(1)
	}
	return v, ok
}

// Add adds the key/value pair.
func (l *LRU) Add(key, value any) {
	l.cache.Add(key, value)
}

// Remove drops the key if cached.
func (l *LRU) Remove(key any) {
	l.cache.Remove(key)
}

// GetOrLoad first tries to get from cache, and loads on miss.
// Loaded values are cached for later gets.
func (l *LRU) GetOrLoad(key any, loader Loader) (any, error) {
	if v, ok := l.Get(key); ok {
		return v, nil
	}
	v, err := loader(key)
	if err != nil {
		return nil, err
	}

	l.cache.Add(key, v)
	return v, nil
}

// Stats returns hit/miss counts and the hit rate, and whether the rate
// moved since the last call. Housekeeping logs only on movement.
func (l *LRU) Stats() (changed bool, hit, miss int64, rate float64) {
	hit = l.hit.Load()
	miss = l.miss.Load()
	if lookups := hit + miss; lookups > 0 {
		rate = float64(hit) / float64(lookups)
	}

	flag := int32(rate * 1000)
	return l.flag.Swap(flag) != flag, hit, miss, rate
}
