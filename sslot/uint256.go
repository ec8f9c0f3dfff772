// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sslot

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/DIMO-Network/earnings-boost/boost"
)

// Uint256 is a storage cell holding an unsigned 256-bit integer,
// similar to a uint256 in a smart contract. Values exceeding 256 bits
// are truncated to fit boost.Bytes32.
type Uint256 struct {
	context *Context
	pos     boost.Bytes32
}

// NewUint256 creates a uint256 cell at pos.
func NewUint256(context *Context, pos boost.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: pos}
}

// Get loads the cell value. An unset cell reads as zero.
func (u *Uint256) Get() (*big.Int, error) {
	storage, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(storage.Bytes()), nil
}

// Set stores the value.
func (u *Uint256) Set(value *big.Int) {
	u.context.state.SetStorage(u.context.address, u.pos, boost.BytesToBytes32(value.Bytes()))
}

// Add increases the cell by value.
func (u *Uint256) Add(value *big.Int) error {
	current, err := u.Get()
	if err != nil {
		return err
	}
	u.Set(current.Add(current, value))
	return nil
}

// Sub decreases the cell by value. Underflow is an error, never a
// silent wrap.
func (u *Uint256) Sub(value *big.Int) error {
	current, err := u.Get()
	if err != nil {
		return err
	}
	if current.Cmp(value) < 0 {
		return errors.New("uint256 underflow")
	}
	u.Set(current.Sub(current, value))
	return nil
}

// Inc increases the cell by one and returns the new value.
func (u *Uint256) Inc() (*big.Int, error) {
	current, err := u.Get()
	if err != nil {
		return nil, err
	}
	next := current.Add(current, big.NewInt(1))
	u.Set(next)
	return next, nil
}
