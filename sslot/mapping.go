// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sslot

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/DIMO-Network/earnings-boost/boost"
)

// Mapping is a key/value storage abstraction over a storage space,
// similar to a mapping in Solidity. Values are RLP encoded; entry
// positions derive from the key and the mapping's base position.
type Mapping[K Key, V any] struct {
	context *Context
	basePos boost.Bytes32
}

// NewMapping creates a mapping rooted at pos.
func NewMapping[K Key, V any](context *Context, pos boost.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) boost.Bytes32 {
	return boost.Blake2b(key.Bytes(), m.basePos.Bytes())
}

// Get loads the value for key. A missing entry decodes to the zero
// value; pointer values come back non-nil pointing at a zero element.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = m.context.state.DecodeStorage(m.context.address, m.position(key), func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Set stores the value for key.
func (m *Mapping[K, V]) Set(key K, value V) error {
	return m.context.state.EncodeStorage(m.context.address, m.position(key), func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Delete clears the entry for key.
func (m *Mapping[K, V]) Delete(key K) {
	m.context.state.SetRawStorage(m.context.address, m.position(key), nil)
}
