// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package attach keeps the vehicle-to-stake side of the attachment
// mapping. The stake-to-vehicle side lives in the stake record itself;
// the registry keeps both in step.
package attach

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/DIMO-Network/earnings-boost/sslot"
)

var slotVehicleStakes = sslot.SlotFor("vehicle-stakes")

// Service resolves which stake a vehicle is boosting.
type Service struct {
	stakes *sslot.Mapping[*big.Int, *big.Int]
}

// New creates the lookup over sctx.
func New(sctx *sslot.Context) *Service {
	return &Service{
		stakes: sslot.NewMapping[*big.Int, *big.Int](sctx, slotVehicleStakes),
	}
}

// StakeOf returns the stake id vehicleID is attached to, zero when
// unattached.
func (s *Service) StakeOf(vehicleID *big.Int) (*big.Int, error) {
	id, err := s.stakes.Get(vehicleID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get attachment")
	}
	return id, nil
}

// Set binds vehicleID to stakeID.
func (s *Service) Set(vehicleID, stakeID *big.Int) error {
	if err := s.stakes.Set(vehicleID, stakeID); err != nil {
		return errors.Wrap(err, "failed to store attachment")
	}
	return nil
}

// Clear unbinds vehicleID.
func (s *Service) Clear(vehicleID *big.Int) {
	s.stakes.Delete(vehicleID)
}
