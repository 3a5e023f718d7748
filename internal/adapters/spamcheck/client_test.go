package spamcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScoreParsesResponse(t *testing.T) {
	var got scoreRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"score": 2.4, "reason": "listed on one blocklist"}`))
	}))
	defer server.Close()

	scorer := NewHTTPScorer(server.URL, "secret", time.Second, 0, 0, zap.NewNop())
	report, err := scorer.Score(context.Background(), "example.com")
	require.NoError(t, err)

	assert.Equal(t, "example.com", got.Domain)
	assert.Equal(t, 2.4, report.Score)
	assert.Equal(t, "listed on one blocklist", report.Reason)
	assert.Equal(t, server.URL, report.Provider)
	assert.Equal(t, 2.4, report.Raw["score"])
}

func TestScoreDefaultsMissingFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	report, err := NewHTTPScorer(server.URL, "", time.Second, 0, 0, zap.NewNop()).Score(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.Score)
	assert.Equal(t, "external_report", report.Reason)
}

func TestScoreErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) }},
		{"invalid json", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`not json`)) }},
		{"non numeric score", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"score": "high"}`)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewHTTPScorer(server.URL, "", time.Second, 0, 0, zap.NewNop()).Score(context.Background(), "example.com")
			assert.Error(t, err)
		})
	}
}

func TestScoreTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	scorer := NewHTTPScorer(server.URL, "", 50*time.Millisecond, 0, 0, zap.NewNop())
	_, err := scorer.Score(context.Background(), "example.com")
	assert.Error(t, err)
}

func TestScoreRespectsCancelledContextWhileRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"score": 1}`))
	}))
	defer server.Close()

	scorer := NewHTTPScorer(server.URL, "", time.Second, 0.001, 1, zap.NewNop())
	_, err := scorer.Score(context.Background(), "example.com")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = scorer.Score(ctx, "example.com")
	assert.Error(t, err)
}
