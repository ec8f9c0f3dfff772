// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import "sync"

// Sink receives a flushed batch. Sinks must not block; delivery failures are
// the sink's own concern, the engine does not roll back for them.
type Sink func([]*Event)

// Emitter collects events produced by a single operation. Flush sequences and
// delivers them; Discard drops them. Sequence numbers are assigned only at
// flush, so discarded operations leave no gaps.
type Emitter struct {
	mu      sync.Mutex
	nextSeq uint64
	staged  []*Event
	sinks   []Sink
}

// NewEmitter creates an emitter whose first flushed event gets seq nextSeq.
// Pass the journal's newest seq plus one to keep numbering continuous across
// restarts.
func NewEmitter(nextSeq uint64) *Emitter {
	return &Emitter{nextSeq: nextSeq}
}

// Subscribe registers a sink for all subsequently flushed batches.
func (e *Emitter) Subscribe(sink Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, sink)
}

// Stage queues ev, stamped with the operation's time. Seq stays zero until
// flush.
func (e *Emitter) Stage(now uint64, ev *Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ev.Time = now
	e.staged = append(e.staged, ev)
}

// StagedCount returns the number of queued events.
func (e *Emitter) StagedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.staged)
}

// Flush assigns consecutive sequence numbers to the staged events in staging
// order and delivers the batch to every sink.
func (e *Emitter) Flush() {
	e.mu.Lock()
	if len(e.staged) == 0 {
		e.mu.Unlock()
		return
	}
	batch := e.staged
	e.staged = nil
	for _, ev := range batch {
		ev.Seq = e.nextSeq
		e.nextSeq++
	}
	sinks := make([]Sink, len(e.sinks))
	copy(sinks, e.sinks)
	e.mu.Unlock()

	for _, sink := range sinks {
		sink(batch)
	}
}

// Discard drops staged events without delivering them.
func (e *Emitter) Discard() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.staged = nil
}

// NextSeq returns the seq the next flushed event will carry.
func (e *Emitter) NextSeq() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nextSeq
}
