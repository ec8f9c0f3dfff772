// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package sslot provides typed storage cells over registry state,
// laid out the way a Solidity contract lays out its slots. Each
// component of the registry owns a storage space identified by an
// address; named cells and mappings hang off deterministic positions
// inside that space.
package sslot

import (
	"github.com/DIMO-Network/earnings-boost/boost"
	"github.com/DIMO-Network/earnings-boost/state"
)

// Context binds a storage space address to the state it lives in.
type Context struct {
	address boost.Address
	state   *state.State
}

// NewContext creates a context for the given space address.
func NewContext(address boost.Address, st *state.State) *Context {
	return &Context{address: address, state: st}
}

// Address returns the bound space address.
func (c *Context) Address() boost.Address {
	return c.address
}

// State returns the underlying state.
func (c *Context) State() *state.State {
	return c.state
}

// Key is anything that can key a mapping.
type Key interface {
	Bytes() []byte
}

// SlotFor derives the position of a named cell.
func SlotFor(name string) boost.Bytes32 {
	return boost.BytesToBytes32([]byte(name))
}
