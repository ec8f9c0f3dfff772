// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package boostlogs exposes filtered queries over the journaled staking
// notifications.
package boostlogs

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/DIMO-Network/earnings-boost/api/restutil"
	"github.com/DIMO-Network/earnings-boost/boost"
	"github.com/DIMO-Network/earnings-boost/eventdb"
	"github.com/DIMO-Network/earnings-boost/events"
)

type BoostLogs struct {
	db    *eventdb.EventDB
	limit uint64
}

// New creates the endpoint; limit caps how many records one query may
// return.
func New(db *eventdb.EventDB, limit uint64) *BoostLogs {
	return &BoostLogs{db, limit}
}

// Log is the JSON shape of a journaled notification.
type Log struct {
	Seq       uint64                `json:"seq"`
	Time      uint64                `json:"time"`
	Kind      events.Kind           `json:"kind"`
	Staker    boost.Address         `json:"staker"`
	StakeID   *math.HexOrDecimal256 `json:"stakeId"`
	VehicleID *math.HexOrDecimal256 `json:"vehicleId,omitempty"`
	Escrow    *boost.Address        `json:"escrow,omitempty"`
	Level     *uint8                `json:"level,omitempty"`
	Amount    *math.HexOrDecimal256 `json:"amount,omitempty"`
	Points    *math.HexOrDecimal256 `json:"points,omitempty"`
	LockEnd   *uint64               `json:"lockEnd,omitempty"`
}

// ConvertEvent maps a journal record to its JSON shape.
func ConvertEvent(ev *events.Event) *Log {
	out := &Log{
		Seq:       ev.Seq,
		Time:      ev.Time,
		Kind:      ev.Kind,
		Staker:    ev.Staker,
		StakeID:   (*math.HexOrDecimal256)(ev.StakeID),
		VehicleID: (*math.HexOrDecimal256)(ev.VehicleID),
		Escrow:    ev.Escrow,
		Amount:    (*math.HexOrDecimal256)(ev.Amount),
		Points:    (*math.HexOrDecimal256)(ev.Points),
	}
	switch ev.Kind {
	case events.KindStakeCreated:
		level := ev.Level
		out.Level = &level
		lockEnd := ev.LockEnd
		out.LockEnd = &lockEnd
	case events.KindStakeExtended:
		lockEnd := ev.LockEnd
		out.LockEnd = &lockEnd
	}
	return out
}

func (b *BoostLogs) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter eventdb.Filter
	if err := restutil.ParseJSON(req.Body, &filter); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}

	if filter.Options == nil {
		filter.Options = &eventdb.Options{Limit: b.limit}
	} else if filter.Options.Limit > b.limit {
		return restutil.Forbidden(errors.Errorf("options.limit exceeds the maximum of %d", b.limit))
	}

	found, err := b.db.Filter(req.Context(), &filter)
	if err != nil {
		return err
	}
	out := make([]*Log, len(found))
	for i, ev := range found {
		out[i] = ConvertEvent(ev)
	}
	return restutil.WriteJSON(w, out)
}

func (b *BoostLogs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("boostlogs_filter").
		HandlerFunc(restutil.WrapHandlerFunc(b.handleFilter))
}
