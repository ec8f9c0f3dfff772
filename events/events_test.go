// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIMO-Network/earnings-boost/test/datagen"
)

func TestEmitterFlush(t *testing.T) {
	emitter := NewEmitter(7)

	var got []*Event
	emitter.Subscribe(func(batch []*Event) {
		got = append(got, batch...)
	})

	staker := datagen.RandAddress()
	emitter.Stage(1000, VehicleAttached(staker, big.NewInt(1), big.NewInt(55)))
	emitter.Stage(1000, StakeExtended(staker, big.NewInt(1), 2000))
	assert.Equal(t, 2, emitter.StagedCount())
	assert.Empty(t, got)

	emitter.Flush()

	require.Len(t, got, 2)
	assert.Equal(t, uint64(7), got[0].Seq)
	assert.Equal(t, uint64(8), got[1].Seq)
	assert.Equal(t, uint64(1000), got[0].Time)
	assert.Equal(t, KindVehicleAttached, got[0].Kind)
	assert.Equal(t, KindStakeExtended, got[1].Kind)
	assert.Equal(t, 0, emitter.StagedCount())
	assert.Equal(t, uint64(9), emitter.NextSeq())

	// empty flush delivers nothing
	emitter.Flush()
	assert.Len(t, got, 2)
}

func TestEmitterDiscard(t *testing.T) {
	emitter := NewEmitter(1)

	delivered := 0
	emitter.Subscribe(func(batch []*Event) {
		delivered += len(batch)
	})

	staker := datagen.RandAddress()
	emitter.Stage(10, StakeWithdrawn(staker, big.NewInt(3), big.NewInt(500), big.NewInt(1000)))
	emitter.Discard()
	assert.Equal(t, 0, emitter.StagedCount())

	emitter.Stage(20, VehicleDetached(staker, big.NewInt(4), big.NewInt(9)))
	emitter.Flush()

	// discarded events leave no sequence gap
	assert.Equal(t, 1, delivered)
	assert.Equal(t, uint64(2), emitter.NextSeq())
}

func TestConstructorsCopyAmounts(t *testing.T) {
	staker := datagen.RandAddress()
	escrow := datagen.RandAddress()
	amount := big.NewInt(500)

	ev := StakeCreated(staker, big.NewInt(1), escrow, 1, amount, 3000)
	amount.SetInt64(-1)

	assert.Equal(t, big.NewInt(500), ev.Amount)
	require.NotNil(t, ev.Escrow)
	assert.Equal(t, escrow, *ev.Escrow)
	assert.Equal(t, uint8(1), ev.Level)
	assert.Equal(t, uint64(3000), ev.LockEnd)
	assert.Nil(t, ev.VehicleID)
	assert.Nil(t, ev.Points)
}
