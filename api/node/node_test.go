// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node_test

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIMO-Network/earnings-boost/api/node"
	"github.com/DIMO-Network/earnings-boost/events"
	"github.com/DIMO-Network/earnings-boost/health"
	"github.com/DIMO-Network/earnings-boost/lvldb"
	"github.com/DIMO-Network/earnings-boost/staking"
	"github.com/DIMO-Network/earnings-boost/staking/levels"
	"github.com/DIMO-Network/earnings-boost/state"
	"github.com/DIMO-Network/earnings-boost/test/datagen"
	"github.com/DIMO-Network/earnings-boost/tokens"
	"github.com/DIMO-Network/earnings-boost/vehicles"
)

func newServer(t *testing.T) (*httptest.Server, *staking.Staking, *tokens.Tokens, *health.Health) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	st.NewCheckpoint()

	ledger := tokens.New(tokens.Address, st)
	fleet := vehicles.New(vehicles.Address, st)
	clock := staking.NewManualClock(1_700_000_000)
	engine := staking.New(staking.Address, st, levels.Default(), ledger.Caller(staking.Address), fleet, clock, events.NewEmitter(1))

	h := health.New()
	router := mux.NewRouter()
	node.New(engine, h, node.Info{Name: "earnings-boost", Version: "test"}).Mount(router, "/node")
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, engine, ledger, h
}

func get(t *testing.T, server *httptest.Server, path string, v interface{}) int {
	res, err := http.Get(server.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	payload, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(payload, v))
	return res.StatusCode
}

func TestHealth(t *testing.T) {
	server, _, _, h := newServer(t)

	var status health.Status
	code := get(t, server, "/node/health", &status)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, status.Healthy)

	h.EngineReady(true)
	h.JournalOpen(true)

	code = get(t, server, "/node/health", &status)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, status.Healthy)
}

func TestInfoAndStats(t *testing.T) {
	server, engine, ledger, _ := newServer(t)

	var info node.Info
	code := get(t, server, "/node/info", &info)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "earnings-boost", info.Name)

	staker := datagen.RandAddress()
	amount := new(big.Int).Mul(big.NewInt(500), big.NewInt(1e18))
	require.NoError(t, ledger.Mint(staker, amount))
	require.NoError(t, ledger.Approve(staker, staking.Address, amount))
	_, err := engine.Stake(staker, 0, nil)
	require.NoError(t, err)

	var stats node.Stats
	code = get(t, server, "/node/stats", &stats)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, amount, (*big.Int)(stats.TotalLocked))
	assert.Equal(t, big.NewInt(1), (*big.Int)(stats.StakesIssued))
}
