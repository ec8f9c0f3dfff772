// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package points

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIMO-Network/earnings-boost/lvldb"
	"github.com/DIMO-Network/earnings-boost/sslot"
	"github.com/DIMO-Network/earnings-boost/staking/attach"
	"github.com/DIMO-Network/earnings-boost/staking/levels"
	"github.com/DIMO-Network/earnings-boost/staking/stakes"
	"github.com/DIMO-Network/earnings-boost/state"
	"github.com/DIMO-Network/earnings-boost/test/datagen"
	"github.com/DIMO-Network/earnings-boost/vehicles"
)

func newTestService(t *testing.T) (*Service, *stakes.Service, *attach.Service, *vehicles.Registry) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	st.NewCheckpoint()

	sctx := sslot.NewContext(datagen.RandAddress(), st)
	stakeSvc := stakes.New(sctx)
	attachSvc := attach.New(sctx)
	registry := vehicles.New(vehicles.Address, st)

	return New(stakeSvc, attachSvc, levels.Default(), registry), stakeSvc, attachSvc, registry
}

func pointsFor(t *testing.T, svc *Service, vid *big.Int, now uint64) *big.Int {
	p, err := svc.PointsFor(vid, now)
	require.NoError(t, err)
	return p
}

func TestPointsFor(t *testing.T) {
	svc, stakeSvc, attachSvc, registry := newTestService(t)
	owner := datagen.RandAddress()
	vid := big.NewInt(7)

	// unattached
	assert.Equal(t, 0, pointsFor(t, svc, vid, 100).Sign())

	require.NoError(t, registry.Mint(owner, vid))

	id, err := stakeSvc.Mint()
	require.NoError(t, err)
	lvl, _ := levels.Default().Get(1)
	require.NoError(t, stakeSvc.Update(id, &stakes.Stake{
		Level:     1,
		Amount:    lvl.Amount,
		LockEnd:   1000,
		VehicleID: vid,
	}))
	require.NoError(t, stakeSvc.SetOwner(id, owner))
	require.NoError(t, attachSvc.Set(vid, id))

	assert.Equal(t, big.NewInt(2000), pointsFor(t, svc, vid, 100))

	// points hold at the exact lock end instant, expire strictly after
	assert.Equal(t, big.NewInt(2000), pointsFor(t, svc, vid, 1000))
	assert.Equal(t, 0, pointsFor(t, svc, vid, 1001).Sign())
}

func TestPointsForBurnedVehicle(t *testing.T) {
	svc, stakeSvc, attachSvc, registry := newTestService(t)
	owner := datagen.RandAddress()
	vid := big.NewInt(9)

	require.NoError(t, registry.Mint(owner, vid))
	id, err := stakeSvc.Mint()
	require.NoError(t, err)
	require.NoError(t, stakeSvc.Update(id, &stakes.Stake{
		Level:     0,
		Amount:    big.NewInt(500),
		LockEnd:   1000,
		VehicleID: vid,
	}))
	require.NoError(t, attachSvc.Set(vid, id))

	assert.Equal(t, big.NewInt(1000), pointsFor(t, svc, vid, 10))

	// a burned vehicle earns nothing even while the mapping persists
	require.NoError(t, registry.Burn(vid))
	assert.Equal(t, 0, pointsFor(t, svc, vid, 10).Sign())
}

func TestPointsForBadIDs(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	assert.Equal(t, 0, pointsFor(t, svc, nil, 10).Sign())
	assert.Equal(t, 0, pointsFor(t, svc, big.NewInt(0), 10).Sign())
	assert.Equal(t, 0, pointsFor(t, svc, big.NewInt(-5), 10).Sign())
}
