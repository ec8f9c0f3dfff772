// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/DIMO-Network/earnings-boost/boost"
	"github.com/DIMO-Network/earnings-boost/staking/stakes"
)

// Write bodies carry the acting staker address. The service trusts its
// caller-facing glue to have authenticated it.

type StakeRequest struct {
	Staker    *boost.Address        `json:"staker"`
	Level     uint8                 `json:"level"`
	VehicleID *math.HexOrDecimal256 `json:"vehicleId,omitempty"`
}

type StakeResponse struct {
	StakeID *math.HexOrDecimal256 `json:"stakeId"`
}

type UpgradeRequest struct {
	Staker    *boost.Address        `json:"staker"`
	NewLevel  uint8                 `json:"newLevel"`
	VehicleID *math.HexOrDecimal256 `json:"vehicleId,omitempty"`
}

type CallerRequest struct {
	Staker *boost.Address `json:"staker"`
}

type BatchWithdrawRequest struct {
	Staker   *boost.Address          `json:"staker"`
	StakeIDs []*math.HexOrDecimal256 `json:"stakeIds"`
}

type TransferRequest struct {
	From *boost.Address `json:"from"`
	To   *boost.Address `json:"to"`
}

type AttachRequest struct {
	Staker    *boost.Address        `json:"staker"`
	VehicleID *math.HexOrDecimal256 `json:"vehicleId"`
}

type WithdrawResponse struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// Stake is the read model of a stake record.
type Stake struct {
	StakeID   *math.HexOrDecimal256 `json:"stakeId"`
	Owner     boost.Address         `json:"owner"`
	Level     uint8                 `json:"level"`
	Amount    *math.HexOrDecimal256 `json:"amount"`
	LockEnd   uint64                `json:"lockEnd"`
	VehicleID *math.HexOrDecimal256 `json:"vehicleId,omitempty"`
	Expired   bool                  `json:"expired"`
}

func convertStake(stakeID *big.Int, rec *stakes.Stake, owner boost.Address, now uint64) *Stake {
	out := &Stake{
		StakeID: (*math.HexOrDecimal256)(new(big.Int).Set(stakeID)),
		Owner:   owner,
		Level:   rec.Level,
		Amount:  (*math.HexOrDecimal256)(rec.Amount),
		LockEnd: rec.LockEnd,
		Expired: rec.Expired(now),
	}
	if rec.Attached() {
		out.VehicleID = (*math.HexOrDecimal256)(rec.VehicleID)
	}
	return out
}

func fromHexOrDecimal(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return nil
	}
	return (*big.Int)(v)
}
