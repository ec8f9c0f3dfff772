// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package admin serves the operator endpoint for changing log verbosity at
// runtime, on its own listener so it never shares a port with the public API.
package admin

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/DIMO-Network/earnings-boost/api/restutil"
	"github.com/DIMO-Network/earnings-boost/log"
)

// verbosityNames maps accepted request levels onto slog levels.
var verbosityNames = map[string]slog.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"crit":  log.LevelCrit,
}

type setLevelRequest struct {
	Level string `json:"level"`
}

type levelResponse struct {
	CurrentLevel string `json:"currentLevel"`
}

func handleGetLogLevel(logLevel *slog.LevelVar) restutil.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		return restutil.WriteJSON(w, &levelResponse{CurrentLevel: logLevel.Level().String()})
	}
}

func handleSetLogLevel(logLevel *slog.LevelVar) restutil.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		var body setLevelRequest
		if err := restutil.ParseJSON(r.Body, &body); err != nil {
			return restutil.BadRequest(errors.WithMessage(err, "body"))
		}
		level, ok := verbosityNames[body.Level]
		if !ok {
			return restutil.BadRequest(errors.Errorf("level: unknown verbosity %q", body.Level))
		}
		logLevel.Set(level)
		return restutil.WriteJSON(w, &levelResponse{CurrentLevel: logLevel.Level().String()})
	}
}

// HTTPHandler builds the admin router around the shared level var.
func HTTPHandler(logLevel *slog.LevelVar) http.Handler {
	router := mux.NewRouter()
	router.Path("/admin/loglevel").
		Methods(http.MethodGet).
		Name("admin_get_loglevel").
		HandlerFunc(restutil.WrapHandlerFunc(handleGetLogLevel(logLevel)))
	router.Path("/admin/loglevel").
		Methods(http.MethodPost).
		Name("admin_set_loglevel").
		HandlerFunc(restutil.WrapHandlerFunc(handleSetLogLevel(logLevel)))
	return handlers.CompressHandler(router)
}

// StartServer binds the admin handler to addr and returns the URL and a
// shutdown func.
func StartServer(addr string, logLevel *slog.LevelVar) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen admin API addr [%v]", addr)
	}

	srv := &http.Server{
		Handler:           HTTPHandler(logLevel),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		srv.Serve(listener)
	}()
	return "http://" + listener.Addr().String() + "/admin", func() {
		srv.Close()
		wg.Wait()
	}, nil
}
