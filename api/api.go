// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/DIMO-Network/earnings-boost/api/boostlogs"
	"github.com/DIMO-Network/earnings-boost/api/dev"
	"github.com/DIMO-Network/earnings-boost/api/levels"
	"github.com/DIMO-Network/earnings-boost/api/node"
	"github.com/DIMO-Network/earnings-boost/api/stakers"
	"github.com/DIMO-Network/earnings-boost/api/stakes"
	"github.com/DIMO-Network/earnings-boost/api/subscriptions"
	"github.com/DIMO-Network/earnings-boost/api/vehicles"
	"github.com/DIMO-Network/earnings-boost/eventdb"
	"github.com/DIMO-Network/earnings-boost/events"
	"github.com/DIMO-Network/earnings-boost/health"
	"github.com/DIMO-Network/earnings-boost/log"
	"github.com/DIMO-Network/earnings-boost/staking"
	levelstable "github.com/DIMO-Network/earnings-boost/staking/levels"
	"github.com/DIMO-Network/earnings-boost/tokens"
	vehiclereg "github.com/DIMO-Network/earnings-boost/vehicles"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	NodeInfo        node.Info
	PprofOn         bool
	EnableReqLogger bool
	EnableMetrics   bool
	LogsLimit       uint64
	SoloMode        bool
}

// DevBackend is the extra wiring the dev area needs; only set in solo
// mode. Dev mutations run through the engine lock, so no raw state handle
// is exposed here.
type DevBackend struct {
	Ledger *tokens.Tokens
	Fleet  *vehiclereg.Registry
	Clock  *staking.ManualClock
}

// New assembles the HTTP API. The returned closer shuts down the
// subscription hub; call it before stopping the server.
func New(
	engine *staking.Staking,
	table *levelstable.Table,
	logDB *eventdb.EventDB,
	emitter *events.Emitter,
	h *health.Health,
	devBackend *DevBackend,
	opts Options,
) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	stakes.New(engine, engine.Clock()).
		Mount(router, "/stakes")
	vehicles.New(engine).
		Mount(router, "/vehicles")
	stakers.New(engine).
		Mount(router, "/stakers")
	levels.New(table).
		Mount(router, "/levels")
	boostlogs.New(logDB, opts.LogsLimit).
		Mount(router, "/boostlogs")
	node.New(engine, h, opts.NodeInfo).
		Mount(router, "/node")
	subs := subscriptions.New(emitter, origins)
	subs.Mount(router, "/subscriptions")

	if opts.SoloMode && devBackend != nil {
		dev.New(engine, devBackend.Ledger, devBackend.Fleet, devBackend.Clock).
			Mount(router, "/dev")
	}

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}

	return handler.ServeHTTP, subs.Close // subscriptions holds hijacked conns, which need to be closed
}
