// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package boost

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressJSON(t *testing.T) {
	raw := `"0x7567d83b7b8d80addcb281a71d54fc7b3364ffed"`

	var addr Address
	assert.NoError(t, json.Unmarshal([]byte(raw), &addr))

	out, err := json.Marshal(&addr)
	assert.NoError(t, err)
	assert.Equal(t, raw, string(out))
}

func TestParseAddress(t *testing.T) {
	_, err := ParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.NoError(t, err)

	_, err = ParseAddress("7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.NoError(t, err)

	_, err = ParseAddress("0x7567")
	assert.Error(t, err)

	_, err = ParseAddress("zz7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.Error(t, err)
}

func TestBytes32JSON(t *testing.T) {
	raw := `"0x00000000000000000000000000000000000000000000000000006d6173746572"`

	var b Bytes32
	assert.NoError(t, json.Unmarshal([]byte(raw), &b))

	out, err := json.Marshal(&b)
	assert.NoError(t, err)
	assert.Equal(t, raw, string(out))
}

func TestBytesToBytes32(t *testing.T) {
	assert.True(t, BytesToBytes32(nil).IsZero())
	assert.Equal(t, Bytes32{31: 1}, BytesToBytes32([]byte{1}))
}

func TestBlake2b(t *testing.T) {
	single := Blake2b([]byte("data"))
	multi := Blake2b([]byte("da"), []byte("ta"))
	assert.Equal(t, single, multi)

	h := Blake2bFn(func(w io.Writer) {
		w.Write([]byte("data"))
	})
	assert.Equal(t, single, h)
}

func TestKeccak256(t *testing.T) {
	single := Keccak256([]byte("data"))
	multi := Keccak256([]byte("da"), []byte("ta"))
	assert.Equal(t, single, multi)
	assert.NotEqual(t, single, Keccak256([]byte("other")))
}
