// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the errors a staking operation reports back to its
// caller. A revert means the request was rejected by a business rule; the
// engine state is unchanged and the caller may retry with different inputs.
// Anything that is not a revert is an infrastructure fault.
package reverts

import "errors"

// ErrRevert is a rule rejection raised by the staking engine.
type ErrRevert struct {
	message string
}

// New creates a revert with the given message.
func New(message string) *ErrRevert {
	return &ErrRevert{message: message}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// The full set of rejections the engine can raise. Callers match with
// errors.Is; the messages are part of the public surface and mirror what
// clients display.
var (
	ErrInvalidLevel      = New("invalid staking level")
	ErrInvalidStakeID    = New("invalid stake id")
	ErrInvalidVehicleID  = New("invalid vehicle id")
	ErrAlreadyAttached   = New("vehicle already attached")
	ErrNoActiveStaking   = New("no active staking found")
	ErrTokensStillLocked = New("tokens are still locked")
	ErrUnauthorized      = New("unauthorized")
	ErrTransferFailed    = New("token transfer failed")
)

// IsRevert reports whether err is, or wraps, a rule rejection.
func IsRevert(err error) bool {
	var revert *ErrRevert
	return errors.As(err, &revert)
}
