package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesRegisteredCollectors(t *testing.T) {
	m := New("marketquery")
	m.RecordMutationsTotal.WithLabelValues("trade", "created").Inc()
	m.AuthRejectionsTotal.WithLabelValues("missing").Add(2)
	m.HttpRequestsTotal.WithLabelValues("GET", "/internal/trade", "200").Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := string(body)
	assert.Contains(t, out, `marketquery_record_mutations_total{action="created",entity="trade",service="marketquery"} 1`)
	assert.Contains(t, out, `http_server_requests_total{method="GET",path="/internal/trade",status="200"} 1`)
	assert.Contains(t, out, "go_goroutines")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthRejectionsTotal.WithLabelValues("missing")))
}

func TestInstancesAreIsolated(t *testing.T) {
	a, b := New("a"), New("b")
	a.RateLimitedTotal.WithLabelValues("user").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.RateLimitedTotal.WithLabelValues("user")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RateLimitedTotal.WithLabelValues("user")))
}
