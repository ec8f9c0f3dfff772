// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/DIMO-Network/earnings-boost/boost"
	"github.com/DIMO-Network/earnings-boost/sslot"
)

var (
	slotStakes    = sslot.SlotFor("stakes")
	slotOwners    = sslot.SlotFor("stake-owners")
	slotIDCounter = sslot.SlotFor("stake-id-counter")

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// Service is the stake repository bound to the registry's storage space.
type Service struct {
	stakes  *sslot.Mapping[*big.Int, *Stake]
	owners  *sslot.Mapping[*big.Int, boost.Address]
	counter *sslot.Uint256
}

// New creates the repository over sctx.
func New(sctx *sslot.Context) *Service {
	return &Service{
		stakes:  sslot.NewMapping[*big.Int, *Stake](sctx, slotStakes),
		owners:  sslot.NewMapping[*big.Int, boost.Address](sctx, slotOwners),
		counter: sslot.NewUint256(sctx, slotIDCounter),
	}
}

// Mint allocates the next stake id.
func (s *Service) Mint() (*big.Int, error) {
	id, err := s.counter.Inc()
	if err != nil {
		return nil, errors.Wrap(err, "failed to mint stake id")
	}
	if id.Cmp(maxUint256) >= 0 {
		return nil, errors.New("stake id counter overflow")
	}
	return id, nil
}

// Issued returns how many ids have been minted so far.
func (s *Service) Issued() (*big.Int, error) {
	return s.counter.Get()
}

// Get loads the record for id. Nonexistent and withdrawn positions come
// back as an empty record.
func (s *Service) Get(id *big.Int) (*Stake, error) {
	stake, err := s.stakes.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stake")
	}
	return stake, nil
}

// Owner returns who owns id, the zero address when nobody does.
func (s *Service) Owner(id *big.Int) (boost.Address, error) {
	owner, err := s.owners.Get(id)
	if err != nil {
		return boost.Address{}, errors.Wrap(err, "failed to get stake owner")
	}
	return owner, nil
}

// Update stores the record for id.
func (s *Service) Update(id *big.Int, stake *Stake) error {
	if err := s.stakes.Set(id, stake); err != nil {
		return errors.Wrap(err, "failed to store stake")
	}
	return nil
}

// SetOwner records the owner of id.
func (s *Service) SetOwner(id *big.Int, owner boost.Address) error {
	if err := s.owners.Set(id, owner); err != nil {
		return errors.Wrap(err, "failed to store stake owner")
	}
	return nil
}

// Remove tombstones id: both the record and its ownership are cleared and
// the id is never handed out again.
func (s *Service) Remove(id *big.Int) {
	s.stakes.Delete(id)
	s.owners.Delete(id)
}
