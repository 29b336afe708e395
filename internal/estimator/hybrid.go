package estimator

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/observability"
)

const (
	defaultHeuristicWeight = 0.7
	defaultOracleWeight    = 0.3
)

// Hybrid blends the deterministic heuristic with the optional external
// oracle. The weighting is fixed at 70/30 regardless of oracle-reported
// confidence; when the oracle is unreachable or malformed the heuristic
// result is returned unchanged and the failure is only logged.
type Hybrid struct {
	heuristic       *Heuristic
	oracle          OraclePredictor
	logger          *zap.Logger
	metrics         *observability.Metrics
	heuristicWeight float64
	oracleWeight    float64
}

// NewHybrid wires the two layers. A nil oracle degrades to pure-heuristic
// estimation.
func NewHybrid(heuristic *Heuristic, oracle OraclePredictor, logger *zap.Logger, metrics *observability.Metrics) *Hybrid {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hybrid{
		heuristic:       heuristic,
		oracle:          oracle,
		logger:          logger,
		metrics:         metrics,
		heuristicWeight: defaultHeuristicWeight,
		oracleWeight:    defaultOracleWeight,
	}
}

// Estimate never fails: oracle problems degrade estimate quality, not
// correctness.
func (h *Hybrid) Estimate(ctx context.Context, snap Snapshot) Estimate {
	estimate := h.heuristic.Estimate(snap)

	if h.oracle == nil || !h.oracle.Enabled() {
		return estimate
	}

	prediction, err := h.oracle.Predict(ctx, snap)
	if err != nil {
		h.metrics.RecordOracleFallback()
		h.logger.Warn("oracle unavailable, using heuristic estimate",
			zap.String("service_id", snap.ServiceID),
			zap.Error(err))
		return estimate
	}

	h.metrics.RecordOracleSuccess()
	estimate.Minutes = int(math.Round(
		h.heuristicWeight*float64(estimate.Minutes) + h.oracleWeight*float64(prediction.Minutes)))
	estimate.Confidence = clampConfidence(
		h.heuristicWeight*estimate.Confidence + h.oracleWeight*prediction.Confidence)
	return estimate
}
