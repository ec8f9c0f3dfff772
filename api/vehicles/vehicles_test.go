// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vehicles_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apivehicles "github.com/DIMO-Network/earnings-boost/api/vehicles"
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
	apivehicles.New(e.engine).Mount(router, "/vehicles")
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

func (e *env) getJSON(path string, v interface{}) int {
	res, err := http.Get(e.server.URL + path)
	require.NoError(e.t, err)
	defer res.Body.Close()
	payload, err := io.ReadAll(res.Body)
	require.NoError(e.t, err)
	if res.StatusCode == http.StatusOK {
		require.NoError(e.t, json.Unmarshal(payload, v))
	}
	return res.StatusCode
}

func (e *env) detach(vehicleID string, caller boost.Address) (int, string) {
	body, err := json.Marshal(map[string]string{"caller": caller.String()})
	require.NoError(e.t, err)
	req, err := http.NewRequest(http.MethodDelete, e.server.URL+"/vehicles/"+vehicleID+"/attachment", bytes.NewReader(body))
	require.NoError(e.t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer res.Body.Close()
	payload, err := io.ReadAll(res.Body)
	require.NoError(e.t, err)
	return res.StatusCode, string(payload)
}

func TestPointsLifecycle(t *testing.T) {
	e := newEnv(t)
	alice := e.staker(1500)
	vid := big.NewInt(7)
	require.NoError(t, e.fleet.Mint(alice, vid))

	_, err := e.engine.Stake(alice, 1, vid)
	require.NoError(t, err)

	var points apivehicles.Points
	code := e.getJSON("/vehicles/7/points", &points)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, big.NewInt(2000), (*big.Int)(points.Points))

	// points hold at the exact lock end instant, expire one second later
	e.clock.Set(genesis + 365*86400)
	code = e.getJSON("/vehicles/7/points", &points)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, big.NewInt(2000), (*big.Int)(points.Points))

	e.clock.Advance(1)
	code = e.getJSON("/vehicles/7/points", &points)
	require.Equal(t, http.StatusOK, code)
	assert.Zero(t, (*big.Int)(points.Points).Sign())
}

func TestPointsUnattached(t *testing.T) {
	e := newEnv(t)
	owner := datagen.RandAddress()
	require.NoError(t, e.fleet.Mint(owner, big.NewInt(3)))

	var points apivehicles.Points
	code := e.getJSON("/vehicles/3/points", &points)
	require.Equal(t, http.StatusOK, code)
	assert.Zero(t, (*big.Int)(points.Points).Sign())

	code = e.getJSON("/vehicles/bogus/points", &points)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStakeLookup(t *testing.T) {
	e := newEnv(t)
	alice := e.staker(500)
	vid := big.NewInt(11)
	require.NoError(t, e.fleet.Mint(alice, vid))

	var att apivehicles.Attachment
	code := e.getJSON("/vehicles/11/stake", &att)
	require.Equal(t, http.StatusOK, code)
	assert.Zero(t, (*big.Int)(att.StakeID).Sign())

	stakeID, err := e.engine.Stake(alice, 0, vid)
	require.NoError(t, err)

	code = e.getJSON("/vehicles/11/stake", &att)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, stakeID, (*big.Int)(att.StakeID))
}

func TestDetach(t *testing.T) {
	e := newEnv(t)
	alice := e.staker(500)
	vid := big.NewInt(21)
	require.NoError(t, e.fleet.Mint(alice, vid))

	_, err := e.engine.Stake(alice, 0, vid)
	require.NoError(t, err)

	// a stranger may not detach
	mallory := datagen.RandAddress()
	code, payload := e.detach("21", mallory)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, payload, "unauthorized")

	code, _ = e.detach("21", alice)
	require.Equal(t, http.StatusOK, code)

	// detaching again reverts with no active staking
	code, payload = e.detach("21", alice)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, payload, "no active staking")
}
