// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package restutil

import (
	"errors"

	"github.com/DIMO-Network/earnings-boost/staking/reverts"
)

// FromEngine maps an engine error onto the HTTP taxonomy: authorization
// reverts become 403, every other revert 400, and infrastructure failures
// stay bare so the wrapper responds 500.
func FromEngine(err error) error {
	if err == nil {
		return nil
	}
	if !reverts.IsRevert(err) {
		return err
	}
	if errors.Is(err, reverts.ErrUnauthorized) {
		return Forbidden(err)
	}
	return BadRequest(err)
}
