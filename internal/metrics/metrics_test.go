package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterVecs(t *testing.T) {
	CyclesTotal.Reset()
	CyclesTotal.WithLabelValues("completed").Inc()
	CyclesTotal.WithLabelValues("completed").Inc()
	CyclesTotal.WithLabelValues("skipped").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(CyclesTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(CyclesTotal.WithLabelValues("skipped")))
}

func TestReputationGauge(t *testing.T) {
	ReputationScore.Reset()
	ReputationScore.WithLabelValues("7").Set(82.5)
	ReputationScore.WithLabelValues("7").Set(64)

	assert.Equal(t, 64.0, testutil.ToFloat64(ReputationScore.WithLabelValues("7")))
}

func TestPrometheusHandlerExposesMetrics(t *testing.T) {
	SpamScoresTotal.Reset()
	SpamScoresTotal.WithLabelValues("fallback").Add(3)

	server := httptest.NewServer(promhttp.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), `warmup_spam_scores_total{provider="fallback"} 3`))
}
