// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRUGetOrLoad(t *testing.T) {
	c, err := NewLRU(4)
	assert.Nil(t, err)

	loads := 0
	loader := func(key any) (any, error) {
		loads++
		return key.(int) * 10, nil
	}

	v, err := c.GetOrLoad(1, loader)
	assert.Nil(t, err)
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, loads)

	// second read served from cache
	v, err = c.GetOrLoad(1, loader)
	assert.Nil(t, err)
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, loads)

	// loader failure is not cached
	wantErr := errors.New("load failed")
	_, err = c.GetOrLoad(2, func(any) (any, error) { return nil, wantErr })
	assert.Equal(t, wantErr, err)
	_, ok := c.Get(2)
	assert.False(t, ok)
}

func TestLRUEviction(t *testing.T) {
	c, err := NewLRU(2)
	assert.Nil(t, err)

	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok)
	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestLRUStats(t *testing.T) {
	c, err := NewLRU(2)
	assert.Nil(t, err)

	c.Add("a", 1)
	c.Get("a")
	c.Get("missing")

	changed, hit, miss, rate := c.Stats()
	assert.True(t, changed)
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(1), miss)
	assert.Equal(t, 0.5, rate)

	changed, _, _, _ = c.Stats()
	assert.False(t, changed)
}
