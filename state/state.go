// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages registry storage with checkpoint-revert
// semantics over a persistent kv store. Every registry operation runs
// inside a checkpoint so a failure never leaves partial writes behind.
package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/DIMO-Network/earnings-boost/boost"
	"github.com/DIMO-Network/earnings-boost/cache"
	"github.com/DIMO-Network/earnings-boost/journal"
	"github.com/DIMO-Network/earnings-boost/kv"
)

const cacheSize = 8192

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

type storageKey struct {
	addr boost.Address
	key  boost.Bytes32
}

func (k storageKey) persistent() []byte {
	pk := make([]byte, 0, boost.AddressLength+32)
	return append(append(pk, k.addr[:]...), k.key[:]...)
}

// State holds storage cells of the registry's storage spaces, keyed by
// (space address, cell key). Reads go through an LRU over the backing
// store; writes live in a journal until staged and committed.
type State struct {
	store kv.Store
	cache *cache.LRU
	jrn   *journal.Journal
}

// New creates a state over the given store.
func New(store kv.Store) *State {
	c, err := cache.NewLRU(cacheSize)
	if err != nil {
		// cacheSize is a positive constant
		panic(err)
	}

	s := &State{store: store, cache: c}
	s.jrn = journal.New(func(key any) (any, bool, error) {
		raw, err := s.load(key.(storageKey))
		if err != nil {
			return nil, false, err
		}
		return raw, true, nil
	})
	return s
}

// load reads a raw cell through the cache. Missing cells read as empty,
// and the emptiness is cached too.
func (s *State) load(k storageKey) (rlp.RawValue, error) {
	pk := k.persistent()
	v, err := s.cache.GetOrLoad(string(pk), func(any) (any, error) {
		raw, err := s.store.Get(pk)
		if err != nil {
			if s.store.IsNotFound(err) {
				return rlp.RawValue(nil), nil
			}
			return nil, err
		}
		return rlp.RawValue(raw), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(rlp.RawValue), nil
}

// CacheStats reports hit/miss counts of the read cache and whether the
// hit rate moved since the last call.
func (s *State) CacheStats() (bool, int64, int64, float64) {
	return s.cache.Stats()
}

// GetRawStorage returns the storage value in rlp raw for the given
// space address and key.
func (s *State) GetRawStorage(addr boost.Address, key boost.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.jrn.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage sets the storage value in rlp raw. Empty raw deletes
// the cell on commit.
func (s *State) SetRawStorage(addr boost.Address, key boost.Bytes32, raw rlp.RawValue) {
	s.jrn.Put(storageKey{addr, key}, raw)
}

// GetStorage returns the decoded 32-byte storage value for the given
// space address and key.
func (s *State) GetStorage(addr boost.Address, key boost.Bytes32) (boost.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return boost.Bytes32{}, err
	}
	if len(raw) == 0 {
		return boost.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return boost.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// special case for rlp list, it should be a customized storage value
		// return hash of raw data
		return boost.Blake2b(raw), nil
	}
	return boost.BytesToBytes32(content), nil
}

// SetStorage sets a 32-byte storage value for the given space address
// and key. Zero value clears the cell.
func (s *State) SetStorage(addr boost.Address, key, value boost.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// EncodeStorage sets a storage value encoded by the given enc method.
func (s *State) EncodeStorage(addr boost.Address, key boost.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage gets and decodes a storage value.
func (s *State) DecodeStorage(addr boost.Address, key boost.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns the revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.jrn.Push()
}

// RevertTo reverts to the checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.jrn.PopTo(revision)
}
