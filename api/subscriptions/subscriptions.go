// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package subscriptions streams staking notifications to websocket
// clients as they are flushed by the engine.
package subscriptions

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/DIMO-Network/earnings-boost/api/boostlogs"
	"github.com/DIMO-Network/earnings-boost/api/restutil"
	"github.com/DIMO-Network/earnings-boost/events"
	"github.com/DIMO-Network/earnings-boost/log"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	eventQueueLen = 64
	pingPeriod    = 50 * time.Second
	writeTimeout  = 10 * time.Second
)

type Subscriptions struct {
	upgrader websocket.Upgrader

	mu        sync.Mutex
	subs      map[*subscriber]struct{}
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// subscriber buffers batches for one connection; a subscriber that cannot
// keep up is dropped rather than allowed to stall the engine.
type subscriber struct {
	ch      chan []*events.Event
	dropped chan struct{}
	once    sync.Once
}

func (s *subscriber) drop() {
	s.once.Do(func() { close(s.dropped) })
}

// New creates the endpoint and hooks it to the emitter. Every batch the
// engine flushes is fanned out to all connected clients.
func New(emitter *events.Emitter, allowedOrigins []string) *Subscriptions {
	s := &Subscriptions{
		subs: make(map[*subscriber]struct{}),
		done: make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(req *http.Request) bool {
			origin := req.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
	emitter.Subscribe(s.publish)
	return s
}

func (s *Subscriptions) publish(batch []*events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		select {
		case sub.ch <- batch:
		default:
			// too slow; kill the connection instead of queueing forever
			sub.drop()
			delete(s.subs, sub)
		}
	}
}

func (s *Subscriptions) subscribe() *subscriber {
	sub := &subscriber{
		ch:      make(chan []*events.Event, eventQueueLen),
		dropped: make(chan struct{}),
	}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

func (s *Subscriptions) unsubscribe(sub *subscriber) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has already written the response
		return nil
	}
	defer conn.Close()

	sub := s.subscribe()
	defer s.unsubscribe(sub)

	s.wg.Add(1)
	defer s.wg.Done()

	// reader pump: surfaces client-side close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pinger := time.NewTicker(pingPeriod)
	defer pinger.Stop()

	for {
		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case <-sub.dropped:
			logger.Debug("dropping slow subscriber", "remote", req.RemoteAddr)
			return nil
		case <-pinger.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return nil
			}
		case batch := <-sub.ch:
			for _, ev := range batch {
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(boostlogs.ConvertEvent(ev)); err != nil {
					return nil
				}
			}
		}
	}
}

// Close drops all live connections. Websockets hijack their conns, so the
// HTTP server shutdown does not cover them.
func (s *Subscriptions) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/event").
		Methods(http.MethodGet).
		Name("subscriptions_events").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleSubscribeEvents))
}
