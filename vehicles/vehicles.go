// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vehicles keeps the vehicle id registry the boost engine checks
// attachments against. Lookups use result-style returns so callers branch
// on presence instead of parsing errors.
package vehicles

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/DIMO-Network/earnings-boost/boost"
	"github.com/DIMO-Network/earnings-boost/sslot"
	"github.com/DIMO-Network/earnings-boost/state"
)

// Address is the canonical storage space of the vehicle registry.
var Address = boost.BytesToAddress([]byte("boost-vehicles"))

var (
	ErrExists    = errors.New("vehicle already exists")
	ErrNotFound  = errors.New("vehicle not found")
	ErrNotOwner  = errors.New("not the vehicle owner")
	ErrBadID     = errors.New("vehicle id must be positive")
	ErrZeroOwner = errors.New("vehicle owner must not be zero")
)

// Registry maps vehicle ids to their owners.
type Registry struct {
	owners *sslot.Mapping[*big.Int, boost.Address]
	total  *sslot.Uint256
}

// New creates a registry at the given space address over st.
func New(addr boost.Address, st *state.State) *Registry {
	ctx := sslot.NewContext(addr, st)
	return &Registry{
		owners: sslot.NewMapping[*big.Int, boost.Address](ctx, sslot.SlotFor("vehicle-owners")),
		total:  sslot.NewUint256(ctx, sslot.SlotFor("vehicle-total")),
	}
}

// Mint registers a new vehicle id for owner.
func (r *Registry) Mint(owner boost.Address, id *big.Int) error {
	if id == nil || id.Sign() <= 0 {
		return ErrBadID
	}
	if owner.IsZero() {
		return ErrZeroOwner
	}
	current, err := r.owners.Get(id)
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return ErrExists
	}
	if err := r.owners.Set(id, owner); err != nil {
		return err
	}
	return r.total.Add(big.NewInt(1))
}

// Burn removes a vehicle id. Attachments referencing it survive; the boost
// engine treats a burned vehicle as worth zero points and lets the staker
// detach it.
func (r *Registry) Burn(id *big.Int) error {
	if id == nil || id.Sign() <= 0 {
		return ErrBadID
	}
	current, err := r.owners.Get(id)
	if err != nil {
		return err
	}
	if current.IsZero() {
		return ErrNotFound
	}
	r.owners.Delete(id)
	return r.total.Sub(big.NewInt(1))
}

// Transfer hands a vehicle id from its owner to another address.
func (r *Registry) Transfer(from, to boost.Address, id *big.Int) error {
	if id == nil || id.Sign() <= 0 {
		return ErrBadID
	}
	if to.IsZero() {
		return ErrZeroOwner
	}
	current, err := r.owners.Get(id)
	if err != nil {
		return err
	}
	if current.IsZero() {
		return ErrNotFound
	}
	if current != from {
		return ErrNotOwner
	}
	return r.owners.Set(id, to)
}

// Exists reports whether id is registered.
func (r *Registry) Exists(id *big.Int) (bool, error) {
	if id == nil || id.Sign() <= 0 {
		return false, nil
	}
	owner, err := r.owners.Get(id)
	if err != nil {
		return false, err
	}
	return !owner.IsZero(), nil
}

// OwnerOf returns the owner of id. ok is false when the id is not
// registered.
func (r *Registry) OwnerOf(id *big.Int) (boost.Address, bool, error) {
	if id == nil || id.Sign() <= 0 {
		return boost.Address{}, false, nil
	}
	owner, err := r.owners.Get(id)
	if err != nil {
		return boost.Address{}, false, err
	}
	if owner.IsZero() {
		return boost.Address{}, false, nil
	}
	return owner, true, nil
}

// Total returns the number of registered vehicles.
func (r *Registry) Total() (*big.Int, error) {
	return r.total.Get()
}
