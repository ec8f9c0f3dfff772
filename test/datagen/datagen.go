// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package datagen generates random fixtures for tests.
package datagen

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand/v2"

	"github.com/DIMO-Network/earnings-boost/boost"
)

func RandAddress() (addr boost.Address) {
	rand.Read(addr[:])
	return
}

func RandBytes32() (b boost.Bytes32) {
	rand.Read(b[:])
	return
}

func RandInt() int {
	return mathrand.Int() //#nosec G404
}

func RandIntN(n int) int {
	return mathrand.N(n) //#nosec G404
}

func RandUint64() uint64 {
	return mathrand.Uint64() //#nosec G404
}

// RandBigInt returns a random integer in [1, 2^62).
func RandBigInt() *big.Int {
	return big.NewInt(1 + mathrand.Int64N(1<<62-1)) //#nosec G404
}
