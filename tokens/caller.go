// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/DIMO-Network/earnings-boost/boost"
)

// Caller binds the ledger to a fixed spender, typically the staking
// registry. Rule rejections come back as ok=false so the registry can map
// them onto its own error taxonomy; only infrastructure failures come back
// as errors.
type Caller struct {
	tokens  *Tokens
	spender boost.Address
}

// Caller creates a spender-bound view of the ledger.
func (t *Tokens) Caller(spender boost.Address) *Caller {
	return &Caller{tokens: t, spender: spender}
}

// TransferFrom pulls amount from payer to recipient using the spender's
// allowance.
func (c *Caller) TransferFrom(payer, recipient boost.Address, amount *big.Int) (bool, error) {
	err := c.tokens.TransferFrom(c.spender, payer, recipient, amount)
	return splitRejection(err)
}

// Transfer moves amount between two accounts directly.
func (c *Caller) Transfer(sender, recipient boost.Address, amount *big.Int) (bool, error) {
	err := c.tokens.Transfer(sender, recipient, amount)
	return splitRejection(err)
}

// Delegate points holder's voting power at delegatee.
func (c *Caller) Delegate(holder, delegatee boost.Address) error {
	return c.tokens.Delegate(holder, delegatee)
}

func splitRejection(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrInsufficientBalance) || errors.Is(err, ErrInsufficientAllowance) {
		return false, nil
	}
	return false, err
}
