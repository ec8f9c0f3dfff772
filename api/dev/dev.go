// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package dev exposes solo-mode mutation endpoints: token funding, vehicle
// minting and clock control. Never mounted outside solo runs.
package dev

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/DIMO-Network/earnings-boost/api/restutil"
	"github.com/DIMO-Network/earnings-boost/boost"
	"github.com/DIMO-Network/earnings-boost/staking"
	"github.com/DIMO-Network/earnings-boost/tokens"
	"github.com/DIMO-Network/earnings-boost/vehicles"
)

type Dev struct {
	engine *staking.Staking
	ledger *tokens.Tokens
	fleet  *vehicles.Registry
	clock  *staking.ManualClock // nil when the node runs on wall time
}

func New(engine *staking.Staking, ledger *tokens.Tokens, fleet *vehicles.Registry, clock *staking.ManualClock) *Dev {
	return &Dev{engine: engine, ledger: ledger, fleet: fleet, clock: clock}
}

// convertError maps ledger and registry rule rejections onto 400; anything
// else stays an internal failure.
func convertError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tokens.ErrInsufficientBalance),
		errors.Is(err, tokens.ErrInsufficientAllowance),
		errors.Is(err, vehicles.ErrExists),
		errors.Is(err, vehicles.ErrNotFound),
		errors.Is(err, vehicles.ErrNotOwner),
		errors.Is(err, vehicles.ErrBadID),
		errors.Is(err, vehicles.ErrZeroOwner):
		return restutil.BadRequest(err)
	default:
		return err
	}
}

// update applies fn through the engine lock. The ledger and fleet share
// the engine's state journal, so dev writes must serialize with staking
// operations rather than hold a lock of their own.
func (d *Dev) update(fn func() error) error {
	return d.engine.Mutate(fn)
}

type FundRequest struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type ApproveRequest struct {
	Spender *boost.Address        `json:"spender"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
}

type MintVehicleRequest struct {
	Owner *boost.Address `json:"owner"`
}

type TransferVehicleRequest struct {
	From *boost.Address `json:"from"`
	To   *boost.Address `json:"to"`
}

type AdvanceClockRequest struct {
	Seconds uint64 `json:"seconds"`
}

type ClockResponse struct {
	Now uint64 `json:"now"`
}

func (d *Dev) handleFund(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	var body FundRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return restutil.BadRequest(errors.New("amount: missing"))
	}

	if err := d.update(func() error {
		return d.ledger.Mint(addr, (*big.Int)(body.Amount))
	}); err != nil {
		return convertError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"funded": true})
}

func (d *Dev) handleApprove(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	var body ApproveRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil {
		return restutil.BadRequest(errors.New("amount: missing"))
	}
	spender := staking.Address
	if body.Spender != nil {
		spender = *body.Spender
	}

	if err := d.update(func() error {
		return d.ledger.Approve(addr, spender, (*big.Int)(body.Amount))
	}); err != nil {
		return convertError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"approved": true})
}

func (d *Dev) handleMintVehicle(w http.ResponseWriter, req *http.Request) error {
	id, err := parseVehicleID(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	var body MintVehicleRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Owner == nil {
		return restutil.BadRequest(errors.New("owner: missing"))
	}

	if err := d.update(func() error {
		return d.fleet.Mint(*body.Owner, id)
	}); err != nil {
		return convertError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"minted": true})
}

func (d *Dev) handleBurnVehicle(w http.ResponseWriter, req *http.Request) error {
	id, err := parseVehicleID(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	if err := d.update(func() error {
		return d.fleet.Burn(id)
	}); err != nil {
		return convertError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"burned": true})
}

func (d *Dev) handleTransferVehicle(w http.ResponseWriter, req *http.Request) error {
	id, err := parseVehicleID(mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	var body TransferVehicleRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.From == nil || body.To == nil {
		return restutil.BadRequest(errors.New("from/to: missing"))
	}

	if err := d.update(func() error {
		return d.fleet.Transfer(*body.From, *body.To, id)
	}); err != nil {
		return convertError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"transferred": true})
}

func (d *Dev) handleAdvanceClock(w http.ResponseWriter, req *http.Request) error {
	if d.clock == nil {
		return restutil.Forbidden(errors.New("node runs on wall time"))
	}
	var body AdvanceClockRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	now := d.clock.Advance(body.Seconds)
	return restutil.WriteJSON(w, &ClockResponse{Now: now})
}

func (d *Dev) handleGetClock(w http.ResponseWriter, req *http.Request) error {
	if d.clock == nil {
		return restutil.Forbidden(errors.New("node runs on wall time"))
	}
	return restutil.WriteJSON(w, &ClockResponse{Now: d.clock.Now()})
}

func (d *Dev) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/accounts/{address}/fund").
		Methods(http.MethodPost).
		Name("dev_fund_account").
		HandlerFunc(restutil.WrapHandlerFunc(d.handleFund))
	sub.Path("/accounts/{address}/approve").
		Methods(http.MethodPost).
		Name("dev_approve_spender").
		HandlerFunc(restutil.WrapHandlerFunc(d.handleApprove))
	sub.Path("/vehicles/{id}/mint").
		Methods(http.MethodPost).
		Name("dev_mint_vehicle").
		HandlerFunc(restutil.WrapHandlerFunc(d.handleMintVehicle))
	sub.Path("/vehicles/{id}/burn").
		Methods(http.MethodPost).
		Name("dev_burn_vehicle").
		HandlerFunc(restutil.WrapHandlerFunc(d.handleBurnVehicle))
	sub.Path("/vehicles/{id}/transfer").
		Methods(http.MethodPost).
		Name("dev_transfer_vehicle").
		HandlerFunc(restutil.WrapHandlerFunc(d.handleTransferVehicle))
	sub.Path("/clock").
		Methods(http.MethodGet).
		Name("dev_get_clock").
		HandlerFunc(restutil.WrapHandlerFunc(d.handleGetClock))
	sub.Path("/clock/advance").
		Methods(http.MethodPost).
		Name("dev_advance_clock").
		HandlerFunc(restutil.WrapHandlerFunc(d.handleAdvanceClock))
}

func parseAddress(raw string) (boost.Address, error) {
	addr, err := boost.ParseAddress(raw)
	if err != nil {
		return boost.Address{}, restutil.BadRequest(errors.WithMessage(err, "address"))
	}
	return *addr, nil
}

func parseVehicleID(raw string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(raw, 10)
	if !ok || id.Sign() <= 0 {
		return nil, restutil.BadRequest(errors.Errorf("id: malformed vehicle id %q", raw))
	}
	return id, nil
}
