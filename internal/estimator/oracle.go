package estimator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Oracle errors. They never leave the estimator package boundary: the
// hybrid layer absorbs them and falls back to the heuristic.
var (
	ErrOracleDisabled  = errors.New("oracle not configured")
	ErrOracleMalformed = errors.New("oracle returned malformed prediction")
)

const maxOracleMinutes = 600

// OraclePrediction is the validated payload returned by the external
// predictive service.
type OraclePrediction struct {
	Minutes        int     `json:"predicted_wait_time"`
	Confidence     float64 `json:"confidence"`
	Recommendation string  `json:"recommendation"`
}

// OraclePredictor abstracts the external oracle for the hybrid layer.
type OraclePredictor interface {
	Predict(ctx context.Context, snap Snapshot) (*OraclePrediction, error)
	Enabled() bool
}

// OracleClient calls the external predictive service over HTTP with a
// bounded timeout.
type OracleClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewOracleClient builds the client. An empty base URL disables the
// oracle entirely.
func NewOracleClient(baseURL string, timeout time.Duration) *OracleClient {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &OracleClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Enabled reports whether an oracle endpoint is configured.
func (c *OracleClient) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Predict posts the service snapshot and validates the response shape and
// numeric ranges. Any transport failure, non-2xx status, undecodable body
// or out-of-range value is reported as an error for the caller to absorb.
func (c *OracleClient) Predict(ctx context.Context, snap Snapshot) (*OraclePrediction, error) {
	if !c.Enabled() {
		return nil, ErrOracleDisabled
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("oracle status %d", resp.StatusCode)
	}

	var prediction OraclePrediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, ErrOracleMalformed
	}
	if err := prediction.validate(); err != nil {
		return nil, err
	}
	return &prediction, nil
}

func (p *OraclePrediction) validate() error {
	if p.Minutes < 0 || p.Minutes > maxOracleMinutes {
		return ErrOracleMalformed
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return ErrOracleMalformed
	}
	return nil
}
