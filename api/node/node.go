// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node exposes the node's own surfaces: health and aggregate
// engine stats.
package node

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"

	"github.com/DIMO-Network/earnings-boost/api/restutil"
	"github.com/DIMO-Network/earnings-boost/health"
	"github.com/DIMO-Network/earnings-boost/staking"
)

type Node struct {
	engine *staking.Staking
	health *health.Health
	info   Info
}

// Info identifies the node build.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Stats are the engine-wide aggregates.
type Stats struct {
	TotalLocked  *math.HexOrDecimal256 `json:"totalLocked"`
	StakesIssued *math.HexOrDecimal256 `json:"stakesIssued"`
}

func New(engine *staking.Staking, h *health.Health, info Info) *Node {
	return &Node{engine, h, info}
}

func (n *Node) handleHealth(w http.ResponseWriter, req *http.Request) error {
	status, err := n.health.Status()
	if err != nil {
		return err
	}
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	return restutil.WriteJSON(w, status)
}

func (n *Node) handleInfo(w http.ResponseWriter, req *http.Request) error {
	return restutil.WriteJSON(w, n.info)
}

func (n *Node) handleStats(w http.ResponseWriter, req *http.Request) error {
	locked, err := n.engine.TotalLocked()
	if err != nil {
		return err
	}
	issued, err := n.engine.StakesIssued()
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Stats{
		TotalLocked:  (*math.HexOrDecimal256)(locked),
		StakesIssued: (*math.HexOrDecimal256)(issued),
	})
}

func (n *Node) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/health").
		Methods(http.MethodGet).
		Name("node_get_health").
		HandlerFunc(restutil.WrapHandlerFunc(n.handleHealth))
	sub.Path("/info").
		Methods(http.MethodGet).
		Name("node_get_info").
		HandlerFunc(restutil.WrapHandlerFunc(n.handleInfo))
	sub.Path("/stats").
		Methods(http.MethodGet).
		Name("node_get_stats").
		HandlerFunc(restutil.WrapHandlerFunc(n.handleStats))
}
