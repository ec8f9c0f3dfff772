// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vehicles exposes the vehicle-side reads of the staking engine,
// plus detaching.
package vehicles

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/DIMO-Network/earnings-boost/api/restutil"
	"github.com/DIMO-Network/earnings-boost/boost"
	"github.com/DIMO-Network/earnings-boost/staking"
)

type Vehicles struct {
	engine *staking.Staking
}

func New(engine *staking.Staking) *Vehicles {
	return &Vehicles{engine}
}

// Points is the boost read model.
type Points struct {
	VehicleID *math.HexOrDecimal256 `json:"vehicleId"`
	Points    *math.HexOrDecimal256 `json:"points"`
}

// Attachment names the stake a vehicle is bound to; stakeId is zero when
// unattached.
type Attachment struct {
	VehicleID *math.HexOrDecimal256 `json:"vehicleId"`
	StakeID   *math.HexOrDecimal256 `json:"stakeId"`
}

// DetachRequest carries the caller: the stake's owner or the vehicle's
// owner.
type DetachRequest struct {
	Caller *boost.Address `json:"caller"`
}

func (v *Vehicles) handlePoints(w http.ResponseWriter, req *http.Request) error {
	vehicleID, err := parseVehicleID(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	points, err := v.engine.BaselinePoints(vehicleID)
	if err != nil {
		return restutil.FromEngine(err)
	}
	return restutil.WriteJSON(w, &Points{
		VehicleID: (*math.HexOrDecimal256)(vehicleID),
		Points:    (*math.HexOrDecimal256)(points),
	})
}

func (v *Vehicles) handleStake(w http.ResponseWriter, req *http.Request) error {
	vehicleID, err := parseVehicleID(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	stakeID, err := v.engine.StakeIDForVehicle(vehicleID)
	if err != nil {
		return restutil.FromEngine(err)
	}
	return restutil.WriteJSON(w, &Attachment{
		VehicleID: (*math.HexOrDecimal256)(vehicleID),
		StakeID:   (*math.HexOrDecimal256)(stakeID),
	})
}

func (v *Vehicles) handleDetach(w http.ResponseWriter, req *http.Request) error {
	vehicleID, err := parseVehicleID(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	var body DetachRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Caller == nil {
		return restutil.BadRequest(errors.New("caller: missing"))
	}

	if err := v.engine.DetachVehicle(*body.Caller, vehicleID); err != nil {
		return restutil.FromEngine(err)
	}
	return restutil.WriteJSON(w, restutil.M{"detached": true})
}

func (v *Vehicles) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{id}/points").
		Methods(http.MethodGet).
		Name("vehicles_get_points").
		HandlerFunc(restutil.WrapHandlerFunc(v.handlePoints))
	sub.Path("/{id}/stake").
		Methods(http.MethodGet).
		Name("vehicles_get_stake").
		HandlerFunc(restutil.WrapHandlerFunc(v.handleStake))
	sub.Path("/{id}/attachment").
		Methods(http.MethodDelete).
		Name("vehicles_detach").
		HandlerFunc(restutil.WrapHandlerFunc(v.handleDetach))
}

func parseVehicleID(raw string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(raw, 10)
	if !ok || id.Sign() <= 0 {
		return nil, restutil.BadRequest(errors.Errorf("id: malformed vehicle id %q", raw))
	}
	return id, nil
}
