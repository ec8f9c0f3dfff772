// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakes exposes the write side of the staking engine plus stake
// reads over HTTP.
package stakes

import (
	"math/big"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/DIMO-Network/earnings-boost/api/restutil"
	"github.com/DIMO-Network/earnings-boost/staking"
)

type Stakes struct {
	engine *staking.Staking
	clock  staking.Clock
}

func New(engine *staking.Staking, clock staking.Clock) *Stakes {
	return &Stakes{engine, clock}
}

func (s *Stakes) handleStake(w http.ResponseWriter, req *http.Request) error {
	var body StakeRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Staker == nil {
		return restutil.BadRequest(errors.New("staker: missing"))
	}

	stakeID, err := s.engine.Stake(*body.Staker, body.Level, fromHexOrDecimal(body.VehicleID))
	if err != nil {
		return restutil.FromEngine(err)
	}
	return restutil.WriteJSON(w, &StakeResponse{StakeID: (*math.HexOrDecimal256)(stakeID)})
}

func (s *Stakes) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	stakeID, err := parseStakeID(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	rec, owner, err := s.engine.GetStake(stakeID)
	if err != nil {
		return err
	}
	if rec.IsEmpty() {
		return restutil.HTTPError(errors.New("stake not found"), http.StatusNotFound)
	}
	return restutil.WriteJSON(w, convertStake(stakeID, rec, owner, s.clock.Now()))
}

func (s *Stakes) handleUpgrade(w http.ResponseWriter, req *http.Request) error {
	stakeID, err := parseStakeID(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	var body UpgradeRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Staker == nil {
		return restutil.BadRequest(errors.New("staker: missing"))
	}

	if err := s.engine.UpgradeStake(*body.Staker, stakeID, body.NewLevel, fromHexOrDecimal(body.VehicleID)); err != nil {
		return restutil.FromEngine(err)
	}
	return restutil.WriteJSON(w, restutil.M{"upgraded": true})
}

func (s *Stakes) handleExtend(w http.ResponseWriter, req *http.Request) error {
	stakeID, err := parseStakeID(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	var body CallerRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Staker == nil {
		return restutil.BadRequest(errors.New("staker: missing"))
	}

	if err := s.engine.ExtendStaking(*body.Staker, stakeID); err != nil {
		return restutil.FromEngine(err)
	}
	return restutil.WriteJSON(w, restutil.M{"extended": true})
}

func (s *Stakes) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	stakeID, err := parseStakeID(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	var body CallerRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Staker == nil {
		return restutil.BadRequest(errors.New("staker: missing"))
	}

	amount, err := s.engine.Withdraw(*body.Staker, stakeID)
	if err != nil {
		return restutil.FromEngine(err)
	}
	return restutil.WriteJSON(w, &WithdrawResponse{Amount: (*math.HexOrDecimal256)(amount)})
}

func (s *Stakes) handleBatchWithdraw(w http.ResponseWriter, req *http.Request) error {
	var body BatchWithdrawRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Staker == nil {
		return restutil.BadRequest(errors.New("staker: missing"))
	}
	if len(body.StakeIDs) == 0 {
		return restutil.BadRequest(errors.New("stakeIds: empty"))
	}

	ids := make([]*big.Int, len(body.StakeIDs))
	for i, id := range body.StakeIDs {
		if id == nil {
			return restutil.BadRequest(errors.Errorf("stakeIds[%d]: missing", i))
		}
		ids[i] = (*big.Int)(id)
	}

	total, err := s.engine.WithdrawMany(*body.Staker, ids)
	if err != nil {
		return restutil.FromEngine(err)
	}
	return restutil.WriteJSON(w, &WithdrawResponse{Amount: (*math.HexOrDecimal256)(total)})
}

func (s *Stakes) handleTransfer(w http.ResponseWriter, req *http.Request) error {
	stakeID, err := parseStakeID(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	var body TransferRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.From == nil {
		return restutil.BadRequest(errors.New("from: missing"))
	}
	if body.To == nil {
		return restutil.BadRequest(errors.New("to: missing"))
	}

	if err := s.engine.Transfer(*body.From, *body.To, stakeID); err != nil {
		return restutil.FromEngine(err)
	}
	return restutil.WriteJSON(w, restutil.M{"transferred": true})
}

func (s *Stakes) handleAttach(w http.ResponseWriter, req *http.Request) error {
	stakeID, err := parseStakeID(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	var body AttachRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Staker == nil {
		return restutil.BadRequest(errors.New("staker: missing"))
	}
	if body.VehicleID == nil {
		return restutil.BadRequest(errors.New("vehicleId: missing"))
	}

	if err := s.engine.AttachVehicle(*body.Staker, stakeID, (*big.Int)(body.VehicleID)); err != nil {
		return restutil.FromEngine(err)
	}
	return restutil.WriteJSON(w, restutil.M{"attached": true})
}

func (s *Stakes) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("stakes_create").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleStake))
	sub.Path("/withdrawals").
		Methods(http.MethodPost).
		Name("stakes_batch_withdraw").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleBatchWithdraw))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("stakes_get").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetStake))
	sub.Path("/{id}/upgrade").
		Methods(http.MethodPost).
		Name("stakes_upgrade").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleUpgrade))
	sub.Path("/{id}/extend").
		Methods(http.MethodPost).
		Name("stakes_extend").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleExtend))
	sub.Path("/{id}/withdraw").
		Methods(http.MethodPost).
		Name("stakes_withdraw").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleWithdraw))
	sub.Path("/{id}/transfer").
		Methods(http.MethodPost).
		Name("stakes_transfer").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleTransfer))
	sub.Path("/{id}/vehicle").
		Methods(http.MethodPost).
		Name("stakes_attach_vehicle").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleAttach))
}

func parseStakeID(raw string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(raw, 10)
	if !ok || id.Sign() <= 0 {
		return nil, restutil.BadRequest(errors.Errorf("id: malformed stake id %q", raw))
	}
	return id, nil
}
