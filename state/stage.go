// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"
)

// Stage is a snapshot of pending storage changes, ready to be committed
// to the backing store in one batch.
type Stage struct {
	state   *State
	changes map[storageKey]rlp.RawValue
}

// Stage collects all changes journaled since the state was created or
// last committed. Later writes to the same cell win.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey]rlp.RawValue)
	s.jrn.Walk(func(k, v any) bool {
		changes[k.(storageKey)] = v.(rlp.RawValue)
		return true
	})
	return &Stage{state: s, changes: changes}
}

// Len returns the number of changed cells.
func (st *Stage) Len() int {
	return len(st.changes)
}

// Commit writes all staged changes atomically and refreshes the read
// cache. The journal itself is untouched; callers drop it by reverting
// to their checkpoint afterwards.
func (st *Stage) Commit() error {
	batch := st.state.store.NewBatch()
	for k, raw := range st.changes {
		pk := k.persistent()
		if len(raw) == 0 {
			if err := batch.Delete(pk); err != nil {
				return &Error{err}
			}
		} else {
			if err := batch.Put(pk, raw); err != nil {
				return &Error{err}
			}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}

	for k, raw := range st.changes {
		st.state.cache.Add(string(k.persistent()), raw)
	}
	return nil
}
