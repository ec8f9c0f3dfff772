// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIMO-Network/earnings-boost/eventdb"
	"github.com/DIMO-Network/earnings-boost/events"
	"github.com/DIMO-Network/earnings-boost/test/datagen"
)

func openDB(t *testing.T) *eventdb.EventDB {
	db, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewestSeqEmpty(t *testing.T) {
	db := openDB(t)

	seq, err := db.NewestSeq()
	require.NoError(t, err)
	assert.Zero(t, seq)
}

func TestWriteAndFilterAll(t *testing.T) {
	db := openDB(t)

	staker := datagen.RandAddress()
	escrow := datagen.RandAddress()

	created := events.StakeCreated(staker, big.NewInt(1), escrow, 1, big.NewInt(1500), 9000)
	created.Seq, created.Time = 1, 100
	attached := events.VehicleAttached(staker, big.NewInt(1), big.NewInt(7))
	attached.Seq, attached.Time = 2, 100
	withdrawn := events.StakeWithdrawn(staker, big.NewInt(1), big.NewInt(1500), big.NewInt(2000))
	withdrawn.Seq, withdrawn.Time = 3, 200

	require.NoError(t, db.Write([]*events.Event{created, attached}))
	require.NoError(t, db.Write([]*events.Event{withdrawn}))

	seq, err := db.NewestSeq()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), seq)

	got, err := db.Filter(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, events.KindStakeCreated, got[0].Kind)
	assert.Equal(t, staker, got[0].Staker)
	require.NotNil(t, got[0].Escrow)
	assert.Equal(t, escrow, *got[0].Escrow)
	assert.Equal(t, uint8(1), got[0].Level)
	assert.Equal(t, big.NewInt(1500), got[0].Amount)
	assert.Equal(t, uint64(9000), got[0].LockEnd)

	assert.Equal(t, events.KindVehicleAttached, got[1].Kind)
	assert.Equal(t, big.NewInt(7), got[1].VehicleID)
	assert.Nil(t, got[1].Escrow)
	assert.Nil(t, got[1].Amount)

	assert.Equal(t, events.KindStakeWithdrawn, got[2].Kind)
	assert.Equal(t, big.NewInt(2000), got[2].Points)
	assert.Zero(t, got[2].LockEnd)
}

func TestFilterCriteria(t *testing.T) {
	db := openDB(t)

	stakerA := datagen.RandAddress()
	stakerB := datagen.RandAddress()
	escrow := datagen.RandAddress()

	var batch []*events.Event
	for i := uint64(1); i <= 4; i++ {
		staker := stakerA
		if i%2 == 0 {
			staker = stakerB
		}
		ev := events.StakeCreated(staker, new(big.Int).SetUint64(i), escrow, 0, big.NewInt(500), 1000+i)
		ev.Seq, ev.Time = i, 10*i
		batch = append(batch, ev)
	}
	detach := events.VehicleDetached(stakerA, big.NewInt(1), big.NewInt(9))
	detach.Seq, detach.Time = 5, 50
	batch = append(batch, detach)
	require.NoError(t, db.Write(batch))

	// by staker
	got, err := db.Filter(context.Background(), &eventdb.Filter{
		CriteriaSet: []*eventdb.Criteria{{Staker: &stakerB}},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(2), got[0].Seq)
	assert.Equal(t, uint64(4), got[1].Seq)

	// by kind AND vehicle
	got, err = db.Filter(context.Background(), &eventdb.Filter{
		CriteriaSet: []*eventdb.Criteria{{Kind: events.KindVehicleDetached, VehicleID: big.NewInt(9)}},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(5), got[0].Seq)

	// criteria are OR'd
	got, err = db.Filter(context.Background(), &eventdb.Filter{
		CriteriaSet: []*eventdb.Criteria{
			{StakeID: big.NewInt(1), Kind: events.KindStakeCreated},
			{Kind: events.KindVehicleDetached},
		},
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFilterRangeOrderOptions(t *testing.T) {
	db := openDB(t)

	staker := datagen.RandAddress()
	var batch []*events.Event
	for i := uint64(1); i <= 10; i++ {
		ev := events.StakeExtended(staker, new(big.Int).SetUint64(i), 5000)
		ev.Seq, ev.Time = i, 100*i
		batch = append(batch, ev)
	}
	require.NoError(t, db.Write(batch))

	got, err := db.Filter(context.Background(), &eventdb.Filter{
		Range: &eventdb.Range{Unit: eventdb.Seq, From: 3, To: 7},
		Order: eventdb.DESC,
	})
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, uint64(7), got[0].Seq)
	assert.Equal(t, uint64(3), got[4].Seq)

	got, err = db.Filter(context.Background(), &eventdb.Filter{
		Range:   &eventdb.Range{Unit: eventdb.Time, From: 400, To: 1000},
		Options: &eventdb.Options{Offset: 1, Limit: 3},
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, uint64(5), got[0].Seq)
	assert.Equal(t, uint64(7), got[2].Seq)
}

func TestEmitterSinkRoundTrip(t *testing.T) {
	db := openDB(t)

	emitter := events.NewEmitter(1)
	emitter.Subscribe(func(batch []*events.Event) {
		require.NoError(t, db.Write(batch))
	})

	staker := datagen.RandAddress()
	emitter.Stage(42, events.VehicleAttached(staker, big.NewInt(3), big.NewInt(11)))
	emitter.Flush()

	got, err := db.Filter(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(1), got[0].Seq)
	assert.Equal(t, uint64(42), got[0].Time)
	assert.Equal(t, big.NewInt(11), got[0].VehicleID)
}
