// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tokens implements the node's native token ledger: balances,
// spending allowances and vote delegation, all kept in the ledger's own
// storage space. Escrow accounts are ordinary ledger accounts, so custody
// balances and delegated voting power survive for as long as the record
// does.
package tokens

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/DIMO-Network/earnings-boost/boost"
	"github.com/DIMO-Network/earnings-boost/sslot"
	"github.com/DIMO-Network/earnings-boost/state"
)

// Address is the canonical storage space of the token ledger.
var Address = boost.BytesToAddress([]byte("boost-tokens"))

// Rule rejections. Everything else returned by the ledger is an
// infrastructure failure.
var (
	ErrInsufficientBalance   = errors.New("insufficient token balance")
	ErrInsufficientAllowance = errors.New("insufficient token allowance")
)

// maxUint256 allowances never decrease, mirroring the common unlimited
// approval convention.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

type allowanceKey struct {
	owner   boost.Address
	spender boost.Address
}

func (k allowanceKey) Bytes() []byte {
	return append(k.owner.Bytes(), k.spender.Bytes()...)
}

// Tokens is the ledger bound to its storage space.
type Tokens struct {
	balances   *sslot.Mapping[boost.Address, *big.Int]
	allowances *sslot.Mapping[allowanceKey, *big.Int]
	supply     *sslot.Uint256
	delegatees *sslot.Mapping[boost.Address, boost.Address]
	votes      *sslot.Mapping[boost.Address, *big.Int]
}

// New creates a ledger at the given space address over st.
func New(addr boost.Address, st *state.State) *Tokens {
	ctx := sslot.NewContext(addr, st)
	return &Tokens{
		balances:   sslot.NewMapping[boost.Address, *big.Int](ctx, sslot.SlotFor("balances")),
		allowances: sslot.NewMapping[allowanceKey, *big.Int](ctx, sslot.SlotFor("allowances")),
		supply:     sslot.NewUint256(ctx, sslot.SlotFor("total-supply")),
		delegatees: sslot.NewMapping[boost.Address, boost.Address](ctx, sslot.SlotFor("delegatees")),
		votes:      sslot.NewMapping[boost.Address, *big.Int](ctx, sslot.SlotFor("votes")),
	}
}

// BalanceOf returns the balance of addr. Unknown accounts read as zero.
func (t *Tokens) BalanceOf(addr boost.Address) (*big.Int, error) {
	return t.balances.Get(addr)
}

// TotalSupply returns the total minted supply.
func (t *Tokens) TotalSupply() (*big.Int, error) {
	return t.supply.Get()
}

func (t *Tokens) setBalance(addr boost.Address, value *big.Int) error {
	if value.Sign() == 0 {
		t.balances.Delete(addr)
		return nil
	}
	return t.balances.Set(addr, value)
}

func (t *Tokens) setVotes(addr boost.Address, value *big.Int) error {
	if value.Sign() == 0 {
		t.votes.Delete(addr)
		return nil
	}
	return t.votes.Set(addr, value)
}

// Mint credits amount to addr and grows the supply.
func (t *Tokens) Mint(addr boost.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("mint amount must be non-negative")
	}
	balance, err := t.balances.Get(addr)
	if err != nil {
		return err
	}
	if err := t.setBalance(addr, balance.Add(balance, amount)); err != nil {
		return err
	}
	if err := t.supply.Add(amount); err != nil {
		return err
	}
	return t.addVotingPower(addr, amount)
}

// Transfer moves amount from one account to another. Self transfers are
// allowed and leave the balance unchanged.
func (t *Tokens) Transfer(from, to boost.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("transfer amount must be non-negative")
	}
	if amount.Sign() == 0 {
		return nil
	}
	fromBalance, err := t.balances.Get(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	// debit before the credit readback, so from == to nets out
	if err := t.setBalance(from, fromBalance.Sub(fromBalance, amount)); err != nil {
		return err
	}
	toBalance, err := t.balances.Get(to)
	if err != nil {
		return err
	}
	if err := t.setBalance(to, toBalance.Add(toBalance, amount)); err != nil {
		return err
	}
	if err := t.subVotingPower(from, amount); err != nil {
		return err
	}
	return t.addVotingPower(to, amount)
}

// TransferFrom moves amount from payer to recipient on behalf of spender,
// consuming the payer's allowance unless it is unlimited.
func (t *Tokens) TransferFrom(spender, payer, recipient boost.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("transfer amount must be non-negative")
	}
	allowance, err := t.allowances.Get(allowanceKey{payer, spender})
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := t.Transfer(payer, recipient, amount); err != nil {
		return err
	}
	if allowance.Cmp(maxUint256) == 0 {
		return nil
	}
	return t.setAllowance(payer, spender, allowance.Sub(allowance, amount))
}

// Approve lets spender pull up to amount from owner's account.
func (t *Tokens) Approve(owner, spender boost.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("allowance must be non-negative")
	}
	return t.setAllowance(owner, spender, amount)
}

func (t *Tokens) setAllowance(owner, spender boost.Address, amount *big.Int) error {
	key := allowanceKey{owner, spender}
	if amount.Sign() == 0 {
		t.allowances.Delete(key)
		return nil
	}
	return t.allowances.Set(key, amount)
}

// Allowance returns what spender may still pull from owner.
func (t *Tokens) Allowance(owner, spender boost.Address) (*big.Int, error) {
	return t.allowances.Get(allowanceKey{owner, spender})
}

// Delegate points holder's voting power at delegatee. The zero address
// clears the delegation.
func (t *Tokens) Delegate(holder, delegatee boost.Address) error {
	balance, err := t.balances.Get(holder)
	if err != nil {
		return err
	}
	previous, err := t.delegatees.Get(holder)
	if err != nil {
		return err
	}
	if !previous.IsZero() {
		if err := t.moveVotes(previous, new(big.Int).Neg(balance)); err != nil {
			return err
		}
	}
	if delegatee.IsZero() {
		t.delegatees.Delete(holder)
		return nil
	}
	if err := t.delegatees.Set(holder, delegatee); err != nil {
		return err
	}
	return t.moveVotes(delegatee, balance)
}

// DelegateeOf returns whom holder delegates to, zero when undelegated.
func (t *Tokens) DelegateeOf(holder boost.Address) (boost.Address, error) {
	return t.delegatees.Get(holder)
}

// Votes returns the voting power delegated to addr.
func (t *Tokens) Votes(addr boost.Address) (*big.Int, error) {
	return t.votes.Get(addr)
}

// addVotingPower grows the voting power of holder's delegatee, if any.
func (t *Tokens) addVotingPower(holder boost.Address, amount *big.Int) error {
	delegatee, err := t.delegatees.Get(holder)
	if err != nil || delegatee.IsZero() {
		return err
	}
	return t.moveVotes(delegatee, amount)
}

// subVotingPower shrinks the voting power of holder's delegatee, if any.
func (t *Tokens) subVotingPower(holder boost.Address, amount *big.Int) error {
	delegatee, err := t.delegatees.Get(holder)
	if err != nil || delegatee.IsZero() {
		return err
	}
	return t.moveVotes(delegatee, new(big.Int).Neg(amount))
}

func (t *Tokens) moveVotes(delegatee boost.Address, delta *big.Int) error {
	votes, err := t.votes.Get(delegatee)
	if err != nil {
		return err
	}
	votes.Add(votes, delta)
	if votes.Sign() < 0 {
		return errors.New("voting power underflow")
	}
	return t.setVotes(delegatee, votes)
}
