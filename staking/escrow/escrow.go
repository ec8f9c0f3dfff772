// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package escrow manages per-staker custody accounts. An escrow is an
// ordinary ledger account at an address derived from the staker, created
// lazily on first stake and kept forever so delegated voting power
// survives zero-stake periods. Only the registry moves funds out of one.
package escrow

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/DIMO-Network/earnings-boost/boost"
	"github.com/DIMO-Network/earnings-boost/sslot"
	"github.com/DIMO-Network/earnings-boost/staking/reverts"
)

var slotAccounts = sslot.SlotFor("escrow-accounts")

// Ledger is the slice of the token ledger custody needs. Rejections come
// back as ok=false; errors are infrastructure failures.
type Ledger interface {
	TransferFrom(payer, recipient boost.Address, amount *big.Int) (bool, error)
	Transfer(sender, recipient boost.Address, amount *big.Int) (bool, error)
	Delegate(holder, delegatee boost.Address) error
}

// Service tracks escrow accounts for one registry.
type Service struct {
	registry boost.Address
	accounts *sslot.Mapping[boost.Address, boost.Address]
	ledger   Ledger
}

// New creates the service over sctx; the context's address doubles as the
// derivation salt and the authorized on-behalf delegator.
func New(sctx *sslot.Context, ledger Ledger) *Service {
	return &Service{
		registry: sctx.Address(),
		accounts: sslot.NewMapping[boost.Address, boost.Address](sctx, slotAccounts),
		ledger:   ledger,
	}
}

// deriveAddress computes the escrow account address for owner, the same
// way EVM chains derive deterministic deployment addresses.
func (s *Service) deriveAddress(owner boost.Address) boost.Address {
	hash := boost.Keccak256(s.registry.Bytes(), []byte("escrow"), owner.Bytes())
	return boost.BytesToAddress(hash.Bytes()[12:])
}

// Lookup returns owner's escrow account, ok=false when none was created
// yet.
func (s *Service) Lookup(owner boost.Address) (boost.Address, bool, error) {
	account, err := s.accounts.Get(owner)
	if err != nil {
		return boost.Address{}, false, errors.Wrap(err, "failed to get escrow account")
	}
	if account.IsZero() {
		return boost.Address{}, false, nil
	}
	return account, true, nil
}

// GetOrCreate returns owner's escrow account, creating the record on
// first use. The account is never destroyed afterwards.
func (s *Service) GetOrCreate(owner boost.Address) (boost.Address, bool, error) {
	account, ok, err := s.Lookup(owner)
	if err != nil {
		return boost.Address{}, false, err
	}
	if ok {
		return account, false, nil
	}
	account = s.deriveAddress(owner)
	if err := s.accounts.Set(owner, account); err != nil {
		return boost.Address{}, false, errors.Wrap(err, "failed to store escrow account")
	}
	return account, true, nil
}

// Deposit pulls amount from payer into the escrow account using the
// registry's spending allowance.
func (s *Service) Deposit(payer, account boost.Address, amount *big.Int) error {
	ok, err := s.ledger.TransferFrom(payer, account, amount)
	if err != nil {
		return errors.Wrap(err, "escrow deposit")
	}
	if !ok {
		return reverts.ErrTransferFailed
	}
	return nil
}

// Release pays amount out of the escrow account to a staker.
func (s *Service) Release(account, to boost.Address, amount *big.Int) error {
	ok, err := s.ledger.Transfer(account, to, amount)
	if err != nil {
		return errors.Wrap(err, "escrow release")
	}
	if !ok {
		return reverts.ErrTransferFailed
	}
	return nil
}

// Move shifts amount between two escrow accounts when a stake changes
// hands.
func (s *Service) Move(from, to boost.Address, amount *big.Int) error {
	ok, err := s.ledger.Transfer(from, to, amount)
	if err != nil {
		return errors.Wrap(err, "escrow move")
	}
	if !ok {
		return reverts.ErrTransferFailed
	}
	return nil
}

// Delegate forwards the escrow's voting power to delegatee. Only the
// owning staker or the registry may call it; having no escrow means
// having nothing to delegate.
func (s *Service) Delegate(caller, owner, delegatee boost.Address) error {
	if caller != owner && caller != s.registry {
		return reverts.ErrUnauthorized
	}
	account, ok, err := s.Lookup(owner)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.ErrNoActiveStaking
	}
	if err := s.ledger.Delegate(account, delegatee); err != nil {
		return errors.Wrap(err, "escrow delegate")
	}
	return nil
}
