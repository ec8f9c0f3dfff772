// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vehicles

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIMO-Network/earnings-boost/boost"
	"github.com/DIMO-Network/earnings-boost/lvldb"
	"github.com/DIMO-Network/earnings-boost/state"
	"github.com/DIMO-Network/earnings-boost/test/datagen"
)

func newTestRegistry(t *testing.T) *Registry {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	st.NewCheckpoint()
	return New(Address, st)
}

func TestMintAndLookup(t *testing.T) {
	reg := newTestRegistry(t)
	owner := datagen.RandAddress()
	id := big.NewInt(7)

	exists, err := reg.Exists(id)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, reg.Mint(owner, id))

	exists, err = reg.Exists(id)
	require.NoError(t, err)
	assert.True(t, exists)

	got, ok, err := reg.OwnerOf(id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, owner, got)

	total, err := reg.Total()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), total)

	assert.ErrorIs(t, reg.Mint(owner, id), ErrExists)
	assert.ErrorIs(t, reg.Mint(owner, big.NewInt(0)), ErrBadID)
	assert.ErrorIs(t, reg.Mint(boost.Address{}, big.NewInt(8)), ErrZeroOwner)
}

func TestBurn(t *testing.T) {
	reg := newTestRegistry(t)
	owner := datagen.RandAddress()
	id := big.NewInt(3)

	assert.ErrorIs(t, reg.Burn(id), ErrNotFound)

	require.NoError(t, reg.Mint(owner, id))
	require.NoError(t, reg.Burn(id))

	_, ok, err := reg.OwnerOf(id)
	require.NoError(t, err)
	assert.False(t, ok)

	total, err := reg.Total()
	require.NoError(t, err)
	assert.Zero(t, total.Sign())
}

func TestTransfer(t *testing.T) {
	reg := newTestRegistry(t)
	a := datagen.RandAddress()
	b := datagen.RandAddress()
	id := big.NewInt(11)

	require.NoError(t, reg.Mint(a, id))

	assert.ErrorIs(t, reg.Transfer(b, a, id), ErrNotOwner)
	assert.ErrorIs(t, reg.Transfer(a, boost.Address{}, id), ErrZeroOwner)
	assert.ErrorIs(t, reg.Transfer(a, b, big.NewInt(999)), ErrNotFound)

	require.NoError(t, reg.Transfer(a, b, id))
	got, ok, err := reg.OwnerOf(id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, b, got)
}

func TestUnregisteredLookups(t *testing.T) {
	reg := newTestRegistry(t)

	_, ok, err := reg.OwnerOf(big.NewInt(42))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = reg.OwnerOf(nil)
	require.NoError(t, err)
	assert.False(t, ok)

	exists, err := reg.Exists(nil)
	require.NoError(t, err)
	assert.False(t, exists)
}
