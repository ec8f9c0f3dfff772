// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIMO-Network/earnings-boost/api/stakes"
	"github.com/DIMO-Network/earnings-boost/boost"
	"github.com/DIMO-Network/earnings-boost/events"
	"github.com/DIMO-Network/earnings-boost/lvldb"
	"github.com/DIMO-Network/earnings-boost/staking"
	"github.com/DIMO-Network/earnings-boost/staking/levels"
	"github.com/DIMO-Network/earnings-boost/state"
	"github.com/DIMO-Network/earnings-boost/test/datagen"
	"github.com/DIMO-Network/earnings-boost/tokens"
	"github.com/DIMO-Network/earnings-boost/vehicles"
)

const genesis = uint64(1_700_000_000)

type env struct {
	t      *testing.T
	server *httptest.Server
	clock  *staking.ManualClock
	ledger *tokens.Tokens
	fleet  *vehicles.Registry
	engine *staking.Staking
}

func newEnv(t *testing.T) *env {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	st.NewCheckpoint()

	e := &env{
		t:      t,
		clock:  staking.NewManualClock(genesis),
		ledger: tokens.New(tokens.Address, st),
		fleet:  vehicles.New(vehicles.Address, st),
	}
	e.engine = staking.New(staking.Address, st, levels.Default(), e.ledger.Caller(staking.Address), e.fleet, e.clock, events.NewEmitter(1))

	router := mux.NewRouter()
	stakes.New(e.engine, e.clock).Mount(router, "/stakes")
	e.server = httptest.NewServer(router)
	t.Cleanup(e.server.Close)
	return e
}

func (e *env) staker(balance int64) boost.Address {
	addr := datagen.RandAddress()
	amount := new(big.Int).Mul(big.NewInt(balance), big.NewInt(1e18))
	require.NoError(e.t, e.ledger.Mint(addr, amount))
	require.NoError(e.t, e.ledger.Approve(addr, staking.Address, amount))
	return addr
}

func (e *env) post(path string, body interface{}) (int, []byte) {
	data, err := json.Marshal(body)
	require.NoError(e.t, err)
	res, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(e.t, err)
	defer res.Body.Close()
	payload, err := io.ReadAll(res.Body)
	require.NoError(e.t, err)
	return res.StatusCode, payload
}

func (e *env) get(path string) (int, []byte) {
	res, err := http.Get(e.server.URL + path)
	require.NoError(e.t, err)
	defer res.Body.Close()
	payload, err := io.ReadAll(res.Body)
	require.NoError(e.t, err)
	return res.StatusCode, payload
}

func TestStakeAndGet(t *testing.T) {
	e := newEnv(t)
	alice := e.staker(1500)
	vid := big.NewInt(77)
	require.NoError(t, e.fleet.Mint(alice, vid))

	code, payload := e.post("/stakes", map[string]interface{}{
		"staker": alice.String(), "level": 1, "vehicleId": "77",
	})
	require.Equal(t, http.StatusOK, code, string(payload))

	var created stakes.StakeResponse
	require.NoError(t, json.Unmarshal(payload, &created))
	assert.Equal(t, big.NewInt(1), (*big.Int)(created.StakeID))

	code, payload = e.get("/stakes/1")
	require.Equal(t, http.StatusOK, code)

	var got stakes.Stake
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, alice, got.Owner)
	assert.Equal(t, uint8(1), got.Level)
	assert.Equal(t, genesis+365*86400, got.LockEnd)
	assert.Equal(t, big.NewInt(77), (*big.Int)(got.VehicleID))
	assert.False(t, got.Expired)
}

func TestGetStakeNotFound(t *testing.T) {
	e := newEnv(t)

	code, _ := e.get("/stakes/42")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = e.get("/stakes/bogus")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStakeRejections(t *testing.T) {
	e := newEnv(t)
	alice := e.staker(500)

	// bad level reverts with 400
	code, payload := e.post("/stakes", map[string]interface{}{"staker": alice.String(), "level": 9})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(payload), "invalid staking level")

	// no allowance for level 2
	code, payload = e.post("/stakes", map[string]interface{}{"staker": alice.String(), "level": 2})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(payload), "transfer failed")

	// unknown field rejected by strict parsing
	code, _ = e.post("/stakes", map[string]interface{}{"staker": alice.String(), "level": 0, "bogus": true})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestWithdrawLifecycle(t *testing.T) {
	e := newEnv(t)
	alice := e.staker(500)

	code, _ := e.post("/stakes", map[string]interface{}{"staker": alice.String(), "level": 0})
	require.Equal(t, http.StatusOK, code)

	// still locked
	code, payload := e.post("/stakes/1/withdraw", map[string]interface{}{"staker": alice.String()})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(payload), "still locked")

	e.clock.Advance(180*86400 + 1)

	code, payload = e.post("/stakes/1/withdraw", map[string]interface{}{"staker": alice.String()})
	require.Equal(t, http.StatusOK, code, string(payload))

	var res stakes.WithdrawResponse
	require.NoError(t, json.Unmarshal(payload, &res))
	assert.Equal(t, new(big.Int).Mul(big.NewInt(500), big.NewInt(1e18)), (*big.Int)(res.Amount))

	// record is gone
	code, _ = e.get("/stakes/1")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBatchWithdraw(t *testing.T) {
	e := newEnv(t)
	alice := e.staker(1000)

	for i := 0; i < 2; i++ {
		code, _ := e.post("/stakes", map[string]interface{}{"staker": alice.String(), "level": 0})
		require.Equal(t, http.StatusOK, code)
	}
	e.clock.Advance(180*86400 + 1)

	// a foreign id aborts the whole batch
	code, payload := e.post("/stakes/withdrawals", map[string]interface{}{
		"staker": alice.String(), "stakeIds": []string{"1", "3"},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(payload), "invalid stake id")

	code, payload = e.post("/stakes/withdrawals", map[string]interface{}{
		"staker": alice.String(), "stakeIds": []string{"1", "2"},
	})
	require.Equal(t, http.StatusOK, code, string(payload))

	var res stakes.WithdrawResponse
	require.NoError(t, json.Unmarshal(payload, &res))
	assert.Equal(t, new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18)), (*big.Int)(res.Amount))
}

func TestUpgradeAndTransfer(t *testing.T) {
	e := newEnv(t)
	alice := e.staker(4000)
	bob := datagen.RandAddress()

	code, _ := e.post("/stakes", map[string]interface{}{"staker": alice.String(), "level": 0})
	require.Equal(t, http.StatusOK, code)

	code, payload := e.post("/stakes/1/upgrade", map[string]interface{}{"staker": alice.String(), "newLevel": 2})
	require.Equal(t, http.StatusOK, code, string(payload))

	// downgrades revert
	code, payload = e.post("/stakes/1/upgrade", map[string]interface{}{"staker": alice.String(), "newLevel": 1})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(payload), "invalid staking level")

	code, payload = e.post("/stakes/1/transfer", map[string]interface{}{"from": alice.String(), "to": bob.String()})
	require.Equal(t, http.StatusOK, code, string(payload))

	code, payload = e.get("/stakes/1")
	require.Equal(t, http.StatusOK, code)
	var got stakes.Stake
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, bob, got.Owner)
	assert.Equal(t, uint8(2), got.Level)
}

func TestExtendAndAttach(t *testing.T) {
	e := newEnv(t)
	alice := e.staker(500)
	vid := big.NewInt(9)
	require.NoError(t, e.fleet.Mint(alice, vid))

	code, _ := e.post("/stakes", map[string]interface{}{"staker": alice.String(), "level": 0})
	require.Equal(t, http.StatusOK, code)

	e.clock.Advance(100 * 86400)
	code, payload := e.post("/stakes/1/extend", map[string]interface{}{"staker": alice.String()})
	require.Equal(t, http.StatusOK, code, string(payload))

	code, payload = e.get("/stakes/1")
	require.Equal(t, http.StatusOK, code)
	var got stakes.Stake
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, e.clock.Now()+180*86400, got.LockEnd)

	code, payload = e.post("/stakes/1/vehicle", map[string]interface{}{"staker": alice.String(), "vehicleId": "9"})
	require.Equal(t, http.StatusOK, code, string(payload))

	// attaching the same vehicle again reverts
	code, payload = e.post("/stakes/1/vehicle", map[string]interface{}{"staker": alice.String(), "vehicleId": "9"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(payload), "already attached")

	// only the owner mutates the stake
	mallory := datagen.RandAddress()
	code, _ = e.post("/stakes/1/extend", map[string]interface{}{"staker": fmt.Sprintf("%v", mallory)})
	assert.Equal(t, http.StatusBadRequest, code)
}
