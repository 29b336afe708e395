package estimator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/observability"
)

func newTestHeuristic() *Heuristic {
	return NewHeuristic(DefaultHeuristicConfig(), fixedClock(quietWednesday))
}

// Bank with ten waiting on a neutral Wednesday: 100 heuristic minutes at
// confidence 0.78.
var hybridSnap = Snapshot{ServiceID: "svc-1", Category: domain.CategoryBank, QueueSize: 10}

func TestHybridBlendsOraclePrediction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/predict", r.URL.Path)

		var snap Snapshot
		require.NoError(t, json.NewDecoder(r.Body).Decode(&snap))
		assert.Equal(t, "svc-1", snap.ServiceID)

		_ = json.NewEncoder(w).Encode(OraclePrediction{Minutes: 40, Confidence: 0.9})
	}))
	defer server.Close()

	metrics := observability.NewMetrics()
	hybrid := NewHybrid(newTestHeuristic(), NewOracleClient(server.URL, 0), nil, metrics)

	estimate := hybrid.Estimate(context.Background(), hybridSnap)

	// round(0.7*100 + 0.3*40)
	assert.Equal(t, 82, estimate.Minutes)
	assert.InDelta(t, 0.7*0.78+0.3*0.9, estimate.Confidence, 1e-9)

	successes, fallbacks := metrics.OracleStats()
	assert.EqualValues(t, 1, successes)
	assert.EqualValues(t, 0, fallbacks)
}

func TestHybridFallsBackOnOracleError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	metrics := observability.NewMetrics()
	hybrid := NewHybrid(newTestHeuristic(), NewOracleClient(server.URL, 0), nil, metrics)

	estimate := hybrid.Estimate(context.Background(), hybridSnap)
	pure := newTestHeuristic().Estimate(hybridSnap)

	assert.Equal(t, pure, estimate)

	successes, fallbacks := metrics.OracleStats()
	assert.EqualValues(t, 0, successes)
	assert.EqualValues(t, 1, fallbacks)
}

func TestHybridFallsBackOnMalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"minutes out of range", `{"predicted_wait_time": 9999, "confidence": 0.9}`},
		{"negative minutes", `{"predicted_wait_time": -3, "confidence": 0.9}`},
		{"confidence out of range", `{"predicted_wait_time": 40, "confidence": 1.7}`},
		{"not json", `gibberish`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			hybrid := NewHybrid(newTestHeuristic(), NewOracleClient(server.URL, 0), nil, nil)

			estimate := hybrid.Estimate(context.Background(), hybridSnap)
			pure := newTestHeuristic().Estimate(hybridSnap)
			assert.Equal(t, pure, estimate)
		})
	}
}

func TestHybridFallsBackOnUnreachableOracle(t *testing.T) {
	// Nothing listens here.
	hybrid := NewHybrid(newTestHeuristic(), NewOracleClient("http://127.0.0.1:1", 0), nil, nil)

	estimate := hybrid.Estimate(context.Background(), hybridSnap)
	pure := newTestHeuristic().Estimate(hybridSnap)
	assert.Equal(t, pure, estimate)
}

func TestHybridWithoutOracle(t *testing.T) {
	t.Run("nil oracle", func(t *testing.T) {
		hybrid := NewHybrid(newTestHeuristic(), nil, nil, nil)
		estimate := hybrid.Estimate(context.Background(), hybridSnap)
		assert.Equal(t, newTestHeuristic().Estimate(hybridSnap), estimate)
	})

	t.Run("disabled client", func(t *testing.T) {
		hybrid := NewHybrid(newTestHeuristic(), NewOracleClient("", 0), nil, nil)
		estimate := hybrid.Estimate(context.Background(), hybridSnap)
		assert.Equal(t, newTestHeuristic().Estimate(hybridSnap), estimate)
	})
}
