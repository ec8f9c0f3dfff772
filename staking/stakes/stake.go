// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakes stores staking positions and their ownership. Ids are
// minted from a monotonic counter starting at 1 and never reused; a
// withdrawn position leaves no record behind.
package stakes

import "math/big"

// Stake is one staking position.
type Stake struct {
	Level     uint8
	Amount    *big.Int
	LockEnd   uint64   // unix seconds; funds unlock strictly after this instant
	VehicleID *big.Int // zero when no vehicle is attached
}

// IsEmpty returns whether the record can be treated as nonexistent.
func (s *Stake) IsEmpty() bool {
	return s.Amount == nil || s.Amount.Sign() == 0
}

// Expired reports whether the lock has run out at now. At the exact lock
// end instant the position is still locked: funds stay held, points still
// count and an attached vehicle cannot be stolen.
func (s *Stake) Expired(now uint64) bool {
	return now > s.LockEnd
}

// Attached reports whether a vehicle is attached.
func (s *Stake) Attached() bool {
	return s.VehicleID != nil && s.VehicleID.Sign() != 0
}
