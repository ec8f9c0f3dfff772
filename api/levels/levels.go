// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package levels exposes the staking level table.
package levels

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"

	"github.com/DIMO-Network/earnings-boost/api/restutil"
	"github.com/DIMO-Network/earnings-boost/staking/levels"
)

type Levels struct {
	table *levels.Table
}

func New(table *levels.Table) *Levels {
	return &Levels{table}
}

// Level is one configured tier.
type Level struct {
	Level        uint8                 `json:"level"`
	Amount       *math.HexOrDecimal256 `json:"amount"`
	LockDuration uint64                `json:"lockDuration"`
	Points       *math.HexOrDecimal256 `json:"points"`
}

func (l *Levels) handleGetLevels(w http.ResponseWriter, req *http.Request) error {
	entries := l.table.All()
	out := make([]Level, len(entries))
	for i, entry := range entries {
		out[i] = Level{
			Level:        uint8(i),
			Amount:       (*math.HexOrDecimal256)(entry.Amount),
			LockDuration: entry.LockDuration,
			Points:       (*math.HexOrDecimal256)(entry.Points),
		}
	}
	return restutil.WriteJSON(w, out)
}

func (l *Levels) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("levels_get_all").
		HandlerFunc(restutil.WrapHandlerFunc(l.handleGetLevels))
}
