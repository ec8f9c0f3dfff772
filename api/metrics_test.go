// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apilevels "github.com/DIMO-Network/earnings-boost/api/levels"
	"github.com/DIMO-Network/earnings-boost/metrics"
	"github.com/DIMO-Network/earnings-boost/staking/levels"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func TestMetricsMiddleware(t *testing.T) {
	router := mux.NewRouter()
	apilevels.New(levels.Default()).Mount(router, "/levels")
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	router.Use(metricsMiddleware)
	ts := httptest.NewServer(router)
	defer ts.Close()

	_, code := httpGet(t, ts.URL+"/levels")
	require.Equal(t, 200, code)
	_, code = httpGet(t, ts.URL+"/levels")
	require.Equal(t, 200, code)

	body, _ := httpGet(t, ts.URL+"/metrics")
	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	require.NoError(t, err)

	family, ok := families["earnings_boost_api_request_count"]
	require.True(t, ok, "request counter must be registered")

	var found bool
	for _, m := range family.GetMetric() {
		labels := map[string]string{}
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		if labels["path"] == "levels" && labels["method"] == "GET" && labels["code"] == "200" {
			found = true
			assert.GreaterOrEqual(t, m.GetCounter().GetValue(), float64(2))
		}
	}
	assert.True(t, found, "levels requests must be counted")
}
