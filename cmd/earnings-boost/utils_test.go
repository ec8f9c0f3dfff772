// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIMO-Network/earnings-boost/boost"
)

func TestDevAccountsDeterministic(t *testing.T) {
	first := devAccounts()
	second := devAccounts()
	require.Len(t, first, 10)
	assert.Equal(t, first, second)

	seen := map[boost.Address]bool{}
	for _, a := range first {
		assert.False(t, seen[a], "accounts must be distinct")
		seen[a] = true
	}
}

func TestFullVersion(t *testing.T) {
	assert.Contains(t, fullVersion(), "dev")
}
