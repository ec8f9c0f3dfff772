// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package levels holds the staking level table: the amount, lock duration
// and baseline points of each tier. The table is fixed at startup and never
// mutated afterwards; upgrade rules rely on amounts strictly increasing by
// index.
package levels

import (
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const day = 24 * 60 * 60

// Level is one staking tier.
type Level struct {
	Amount       *big.Int // token base units, 1e18 per whole token
	LockDuration uint64   // seconds
	Points       *big.Int
}

// Table is an immutable list of levels indexed 0..MaxLevel.
type Table struct {
	entries []Level
}

// New builds a table from entries, validating the level invariants.
func New(entries []Level) (*Table, error) {
	if len(entries) == 0 {
		return nil, errors.New("level table is empty")
	}
	if len(entries) > 256 {
		return nil, errors.New("level table exceeds 256 entries")
	}
	copied := make([]Level, len(entries))
	for i, entry := range entries {
		if entry.Amount == nil || entry.Amount.Sign() <= 0 {
			return nil, errors.Errorf("level %d: amount must be positive", i)
		}
		if i > 0 && entry.Amount.Cmp(copied[i-1].Amount) <= 0 {
			return nil, errors.Errorf("level %d: amount must exceed level %d", i, i-1)
		}
		if entry.LockDuration == 0 {
			return nil, errors.Errorf("level %d: lock duration must be positive", i)
		}
		if entry.Points == nil {
			return nil, errors.Errorf("level %d: points missing", i)
		}
		copied[i] = Level{
			Amount:       new(big.Int).Set(entry.Amount),
			LockDuration: entry.LockDuration,
			Points:       new(big.Int).Set(entry.Points),
		}
	}
	return &Table{entries: copied}, nil
}

// Default returns the built-in three-tier table.
func Default() *Table {
	table, err := New([]Level{
		{Amount: tokens(500), LockDuration: 180 * day, Points: big.NewInt(1000)},
		{Amount: tokens(1500), LockDuration: 365 * day, Points: big.NewInt(2000)},
		{Amount: tokens(4000), LockDuration: 730 * day, Points: big.NewInt(3000)},
	})
	if err != nil {
		// the built-in table always validates
		panic(err)
	}
	return table
}

func tokens(n int64) *big.Int {
	return big.NewInt(0).Mul(big.NewInt(n), big.NewInt(1e18))
}

type yamlLevel struct {
	Amount   string `yaml:"amount"`
	LockDays uint64 `yaml:"lockDays"`
	Points   uint64 `yaml:"points"`
}

type yamlTable struct {
	Levels []yamlLevel `yaml:"levels"`
}

// FromYAML loads a table from a document of the form:
//
//	levels:
//	  - amount: "500000000000000000000"
//	    lockDays: 180
//	    points: 1000
//
// Amounts are decimal or 0x-prefixed strings in token base units.
func FromYAML(r io.Reader) (*Table, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var doc yamlTable
	if err := decoder.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decode level table")
	}

	entries := make([]Level, len(doc.Levels))
	for i, lvl := range doc.Levels {
		amount, ok := math.ParseBig256(lvl.Amount)
		if !ok {
			return nil, errors.Errorf("level %d: malformed amount %q", i, lvl.Amount)
		}
		entries[i] = Level{
			Amount:       amount,
			LockDuration: lvl.LockDays * day,
			Points:       new(big.Int).SetUint64(lvl.Points),
		}
	}
	return New(entries)
}

// Get returns a copy of the level at index, or false if index is out of
// range.
func (t *Table) Get(index uint8) (*Level, bool) {
	if int(index) >= len(t.entries) {
		return nil, false
	}
	entry := t.entries[index]
	return &Level{
		Amount:       new(big.Int).Set(entry.Amount),
		LockDuration: entry.LockDuration,
		Points:       new(big.Int).Set(entry.Points),
	}, true
}

// MaxLevel returns the highest valid level index.
func (t *Table) MaxLevel() uint8 {
	return uint8(len(t.entries) - 1)
}

// Count returns the number of levels.
func (t *Table) Count() int {
	return len(t.entries)
}

// All returns a copy of every level in index order.
func (t *Table) All() []Level {
	all := make([]Level, len(t.entries))
	for i, entry := range t.entries {
		all[i] = Level{
			Amount:       new(big.Int).Set(entry.Amount),
			LockDuration: entry.LockDuration,
			Points:       new(big.Int).Set(entry.Points),
		}
	}
	return all
}
