// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package attach

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIMO-Network/earnings-boost/lvldb"
	"github.com/DIMO-Network/earnings-boost/sslot"
	"github.com/DIMO-Network/earnings-boost/state"
	"github.com/DIMO-Network/earnings-boost/test/datagen"
)

func TestAttachment(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	st.NewCheckpoint()
	svc := New(sslot.NewContext(datagen.RandAddress(), st))

	vid := big.NewInt(7)

	id, err := svc.StakeOf(vid)
	require.NoError(t, err)
	assert.Equal(t, 0, id.Sign())

	require.NoError(t, svc.Set(vid, big.NewInt(3)))
	id, err = svc.StakeOf(vid)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(3), id)

	// rebinding overwrites
	require.NoError(t, svc.Set(vid, big.NewInt(9)))
	id, err = svc.StakeOf(vid)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(9), id)

	svc.Clear(vid)
	id, err = svc.StakeOf(vid)
	require.NoError(t, err)
	assert.Equal(t, 0, id.Sign())
}
