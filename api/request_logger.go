// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/DIMO-Network/earnings-boost/log"
)

// RequestLoggerHandler logs each request with its outcome. The body is
// buffered up front so the log line can include it and the downstream
// handler still gets to read it.
func RequestLoggerHandler(next http.Handler, logger log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			var err error
			if body, err = io.ReadAll(r.Body); err != nil {
				logger.Warn("request body read failed", "uri", r.URL.String(), "err", err)
				http.Error(w, "failed to read request body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		started := time.Now()
		mrw := newMetricsResponseWriter(w)
		next.ServeHTTP(mrw, r)

		logger.Info("served API request",
			"method", r.Method,
			"uri", r.URL.String(),
			"status", mrw.statusCode,
			"elapsed", time.Since(started),
			"body", string(body),
		)
	})
}
