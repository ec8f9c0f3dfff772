// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakers exposes the staker-side views: escrow lookup and voting
// power delegation.
package stakers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/DIMO-Network/earnings-boost/api/restutil"
	"github.com/DIMO-Network/earnings-boost/boost"
	"github.com/DIMO-Network/earnings-boost/staking"
)

type Stakers struct {
	engine *staking.Staking
}

func New(engine *staking.Staking) *Stakers {
	return &Stakers{engine}
}

// Escrow is the escrow read model. Created stays false until the staker's
// first stake; the account address is permanent once assigned.
type Escrow struct {
	Staker  boost.Address  `json:"staker"`
	Created bool           `json:"created"`
	Account *boost.Address `json:"account,omitempty"`
}

// DelegateRequest points the escrow's voting power at a delegatee.
type DelegateRequest struct {
	Delegatee *boost.Address `json:"delegatee"`
}

func (s *Stakers) handleGetEscrow(w http.ResponseWriter, req *http.Request) error {
	staker, err := parseStaker(mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	account, ok, err := s.engine.EscrowOf(staker)
	if err != nil {
		return restutil.FromEngine(err)
	}
	out := &Escrow{Staker: staker, Created: ok}
	if ok {
		out.Account = &account
	}
	return restutil.WriteJSON(w, out)
}

func (s *Stakers) handleDelegate(w http.ResponseWriter, req *http.Request) error {
	staker, err := parseStaker(mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	var body DelegateRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Delegatee == nil {
		return restutil.BadRequest(errors.New("delegatee: missing"))
	}

	if err := s.engine.DelegateVotingPower(staker, *body.Delegatee); err != nil {
		return restutil.FromEngine(err)
	}
	return restutil.WriteJSON(w, restutil.M{"delegated": true})
}

func (s *Stakers) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}/escrow").
		Methods(http.MethodGet).
		Name("stakers_get_escrow").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetEscrow))
	sub.Path("/{address}/delegate").
		Methods(http.MethodPost).
		Name("stakers_delegate").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleDelegate))
}

func parseStaker(raw string) (boost.Address, error) {
	addr, err := boost.ParseAddress(raw)
	if err != nil {
		return boost.Address{}, restutil.BadRequest(errors.WithMessage(err, "address"))
	}
	return *addr, nil
}
