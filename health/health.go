// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package health tracks the node's readiness for the health endpoint: the
// engine must be wired up and the event journal reachable. Event progress
// is reported as-is; a quiet engine is still a healthy one.
package health

import (
	"sync"
	"time"
)

// EventProgress describes the newest journaled notification.
type EventProgress struct {
	LastSeq  uint64     `json:"lastSeq"`
	LastTime *time.Time `json:"lastTime,omitempty"`
}

// Status is the health endpoint payload.
type Status struct {
	Healthy       bool           `json:"healthy"`
	EngineReady   bool           `json:"engineReady"`
	JournalOpen   bool           `json:"journalOpen"`
	EventProgress *EventProgress `json:"eventProgress"`
}

// Health is the shared status holder, updated by the node and read by the
// API.
type Health struct {
	lock          sync.RWMutex
	engineReady   bool
	journalOpen   bool
	lastEventSeq  uint64
	lastEventTime *time.Time
}

// New creates an empty holder; everything reads unhealthy until the node
// reports in.
func New() *Health {
	return &Health{}
}

// EngineReady records that the staking engine finished booting.
func (h *Health) EngineReady(ready bool) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.engineReady = ready
}

// JournalOpen records whether the event journal is usable.
func (h *Health) JournalOpen(open bool) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.journalOpen = open
}

// NewEvent records the newest journaled notification.
func (h *Health) NewEvent(seq uint64) {
	h.lock.Lock()
	defer h.lock.Unlock()

	now := time.Now()
	h.lastEventSeq = seq
	h.lastEventTime = &now
}

// Status reports the current health snapshot.
func (h *Health) Status() (*Status, error) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	return &Status{
		Healthy:     h.engineReady && h.journalOpen,
		EngineReady: h.engineReady,
		JournalOpen: h.journalOpen,
		EventProgress: &EventProgress{
			LastSeq:  h.lastEventSeq,
			LastTime: h.lastEventTime,
		},
	}, nil
}
