// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIMO-Network/earnings-boost/lvldb"
	"github.com/DIMO-Network/earnings-boost/sslot"
	"github.com/DIMO-Network/earnings-boost/staking/reverts"
	"github.com/DIMO-Network/earnings-boost/state"
	"github.com/DIMO-Network/earnings-boost/test/datagen"
	"github.com/DIMO-Network/earnings-boost/tokens"
)

func newTestService(t *testing.T) (*Service, *tokens.Tokens, *sslot.Context) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	st.NewCheckpoint()

	registry := datagen.RandAddress()
	ledger := tokens.New(tokens.Address, st)
	sctx := sslot.NewContext(registry, st)
	return New(sctx, ledger.Caller(registry)), ledger, sctx
}

func TestGetOrCreate(t *testing.T) {
	svc, _, _ := newTestService(t)
	owner := datagen.RandAddress()

	_, ok, err := svc.Lookup(owner)
	require.NoError(t, err)
	assert.False(t, ok)

	account, created, err := svc.GetOrCreate(owner)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, account.IsZero())

	// second call reuses the record
	again, created, err := svc.GetOrCreate(owner)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, account, again)

	found, ok, err := svc.Lookup(owner)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, account, found)

	// derivation is owner specific
	other, _, err := svc.GetOrCreate(datagen.RandAddress())
	require.NoError(t, err)
	assert.NotEqual(t, account, other)
}

func TestDepositAndRelease(t *testing.T) {
	svc, ledger, sctx := newTestService(t)
	staker := datagen.RandAddress()

	account, _, err := svc.GetOrCreate(staker)
	require.NoError(t, err)

	// deposits ride on the registry's allowance
	assert.ErrorIs(t, svc.Deposit(staker, account, big.NewInt(100)), reverts.ErrTransferFailed)

	require.NoError(t, ledger.Mint(staker, big.NewInt(500)))
	require.NoError(t, ledger.Approve(staker, sctx.Address(), big.NewInt(500)))

	require.NoError(t, svc.Deposit(staker, account, big.NewInt(100)))
	held, err := ledger.BalanceOf(account)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), held)

	assert.ErrorIs(t, svc.Release(account, staker, big.NewInt(101)), reverts.ErrTransferFailed)

	require.NoError(t, svc.Release(account, staker, big.NewInt(100)))
	back, err := ledger.BalanceOf(staker)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), back)
}

func TestMove(t *testing.T) {
	svc, ledger, sctx := newTestService(t)
	a := datagen.RandAddress()
	b := datagen.RandAddress()

	accountA, _, err := svc.GetOrCreate(a)
	require.NoError(t, err)
	accountB, _, err := svc.GetOrCreate(b)
	require.NoError(t, err)

	require.NoError(t, ledger.Mint(a, big.NewInt(300)))
	require.NoError(t, ledger.Approve(a, sctx.Address(), big.NewInt(300)))
	require.NoError(t, svc.Deposit(a, accountA, big.NewInt(300)))

	require.NoError(t, svc.Move(accountA, accountB, big.NewInt(300)))

	heldA, err := ledger.BalanceOf(accountA)
	require.NoError(t, err)
	assert.Equal(t, 0, heldA.Sign())
	heldB, err := ledger.BalanceOf(accountB)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(300), heldB)

	assert.ErrorIs(t, svc.Move(accountA, accountB, big.NewInt(1)), reverts.ErrTransferFailed)
}

func TestDelegate(t *testing.T) {
	svc, ledger, sctx := newTestService(t)
	owner := datagen.RandAddress()
	stranger := datagen.RandAddress()
	delegatee := datagen.RandAddress()

	// no escrow yet
	assert.ErrorIs(t, svc.Delegate(owner, owner, delegatee), reverts.ErrNoActiveStaking)

	account, _, err := svc.GetOrCreate(owner)
	require.NoError(t, err)
	require.NoError(t, ledger.Mint(owner, big.NewInt(100)))
	require.NoError(t, ledger.Approve(owner, sctx.Address(), big.NewInt(100)))
	require.NoError(t, svc.Deposit(owner, account, big.NewInt(100)))

	assert.ErrorIs(t, svc.Delegate(stranger, owner, delegatee), reverts.ErrUnauthorized)

	// the owner may delegate directly
	require.NoError(t, svc.Delegate(owner, owner, delegatee))
	votes, err := ledger.Votes(delegatee)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), votes)

	// and the registry may do it on the owner's behalf
	require.NoError(t, svc.Delegate(sctx.Address(), owner, stranger))
	votes, err = ledger.Votes(stranger)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), votes)
}
