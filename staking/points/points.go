// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package points computes the baseline boost a vehicle earns from its
// attached stake. It is a pure read over the registry's stored state, used
// both by the public query and by attachment conflict resolution.
package points

import (
	"math/big"

	"github.com/DIMO-Network/earnings-boost/staking/attach"
	"github.com/DIMO-Network/earnings-boost/staking/levels"
	"github.com/DIMO-Network/earnings-boost/staking/stakes"
)

// VehicleSet reports whether a vehicle id is registered.
type VehicleSet interface {
	Exists(id *big.Int) (bool, error)
}

// Service resolves vehicle ids to their current baseline points.
type Service struct {
	stakes   *stakes.Service
	attach   *attach.Service
	table    *levels.Table
	vehicles VehicleSet
}

// New creates the query service.
func New(stakeSvc *stakes.Service, attachSvc *attach.Service, table *levels.Table, vehicleSet VehicleSet) *Service {
	return &Service{
		stakes:   stakeSvc,
		attach:   attachSvc,
		table:    table,
		vehicles: vehicleSet,
	}
}

// PointsFor returns the points vehicleID earns at now. Unattached ids,
// vehicles that no longer exist and expired locks are all worth zero;
// points stay valid at the exact lock end instant.
func (s *Service) PointsFor(vehicleID *big.Int, now uint64) (*big.Int, error) {
	if vehicleID == nil || vehicleID.Sign() <= 0 {
		return new(big.Int), nil
	}
	stakeID, err := s.attach.StakeOf(vehicleID)
	if err != nil {
		return nil, err
	}
	if stakeID.Sign() == 0 {
		return new(big.Int), nil
	}
	exists, err := s.vehicles.Exists(vehicleID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return new(big.Int), nil
	}
	stake, err := s.stakes.Get(stakeID)
	if err != nil {
		return nil, err
	}
	if stake.IsEmpty() || stake.Expired(now) {
		return new(big.Int), nil
	}
	lvl, ok := s.table.Get(stake.Level)
	if !ok {
		return new(big.Int), nil
	}
	return lvl.Points, nil
}
