// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package events defines the notifications the staking engine emits and the
// emitter that stages them during an operation. Staged events are delivered
// only after the operation commits; a reverted operation leaves no trace.
package events

import (
	"math/big"

	"github.com/DIMO-Network/earnings-boost/boost"
)

// Kind tags a notification record.
type Kind string

const (
	KindStakeCreated    Kind = "stake_created"
	KindStakeWithdrawn  Kind = "stake_withdrawn"
	KindVehicleAttached Kind = "vehicle_attached"
	KindVehicleDetached Kind = "vehicle_detached"
	KindStakeExtended   Kind = "stake_extended"
)

// Event is a single notification. All kinds share the flat record; fields not
// carried by a kind stay nil or zero. Seq is assigned at flush time and is
// strictly increasing across the engine's lifetime, including restarts.
type Event struct {
	Seq       uint64
	Time      uint64
	Kind      Kind
	Staker    boost.Address
	StakeID   *big.Int
	VehicleID *big.Int       // attach/detach only
	Escrow    *boost.Address // creation only
	Level     uint8          // creation only
	Amount    *big.Int       // creation, withdrawal
	Points    *big.Int       // withdrawal only
	LockEnd   uint64         // creation, extension
}

// StakeCreated records a new or upgraded stake. Upgrades emit it with the
// post-upgrade level, amount and lock end.
func StakeCreated(staker boost.Address, stakeID *big.Int, escrow boost.Address, level uint8, amount *big.Int, lockEnd uint64) *Event {
	return &Event{
		Kind:    KindStakeCreated,
		Staker:  staker,
		StakeID: new(big.Int).Set(stakeID),
		Escrow:  &escrow,
		Level:   level,
		Amount:  new(big.Int).Set(amount),
		LockEnd: lockEnd,
	}
}

// StakeWithdrawn records a completed withdrawal and the points forfeited
// along with it.
func StakeWithdrawn(staker boost.Address, stakeID, amount, points *big.Int) *Event {
	return &Event{
		Kind:    KindStakeWithdrawn,
		Staker:  staker,
		StakeID: new(big.Int).Set(stakeID),
		Amount:  new(big.Int).Set(amount),
		Points:  new(big.Int).Set(points),
	}
}

// VehicleAttached records a vehicle now boosted by the stake.
func VehicleAttached(staker boost.Address, stakeID, vehicleID *big.Int) *Event {
	return &Event{
		Kind:      KindVehicleAttached,
		Staker:    staker,
		StakeID:   new(big.Int).Set(stakeID),
		VehicleID: new(big.Int).Set(vehicleID),
	}
}

// VehicleDetached records the end of a vehicle's boost.
func VehicleDetached(staker boost.Address, stakeID, vehicleID *big.Int) *Event {
	return &Event{
		Kind:      KindVehicleDetached,
		Staker:    staker,
		StakeID:   new(big.Int).Set(stakeID),
		VehicleID: new(big.Int).Set(vehicleID),
	}
}

// StakeExtended records a lock period restart.
func StakeExtended(staker boost.Address, stakeID *big.Int, lockEnd uint64) *Event {
	return &Event{
		Kind:    KindStakeExtended,
		Staker:  staker,
		StakeID: new(big.Int).Set(stakeID),
		LockEnd: lockEnd,
	}
}
