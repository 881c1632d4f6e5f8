package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/playperu/roadrisk/internal/roadrisk"
)

// Remote asks another road-risk instance for predictions over HTTP.
type Remote struct {
	baseURL  string
	client   *http.Client
	timeout  time.Duration
	maxTries uint
}

type RemoteOption func(*Remote)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) { r.client = c }
}

// WithMaxTries bounds the number of attempts per prediction.
func WithMaxTries(n uint) RemoteOption {
	return func(r *Remote) { r.maxTries = n }
}

// NewRemote returns a client for the instance at baseURL. timeout bounds
// each attempt, not the whole retried call.
func NewRemote(baseURL string, timeout time.Duration, opts ...RemoteOption) *Remote {
	r := &Remote{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{},
		timeout:  timeout,
		maxTries: 3,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

type predictResponse struct {
	AccidentRisk *float64 `json:"accident_risk"`
}

// Predict posts s to /api/predict. Transport errors and 5xx responses are
// retried with exponential backoff; a 400 means the scenario itself is bad
// and is returned at once.
func (r *Remote) Predict(ctx context.Context, s roadrisk.Scenario) (float64, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return 0, fmt.Errorf("encoding scenario: %w", err)
	}

	risk, err := backoff.Retry(ctx, func() (float64, error) {
		return r.attempt(ctx, body)
	},
		backoff.WithBackOff(newBackOff()),
		backoff.WithMaxTries(r.maxTries),
	)
	if err != nil {
		if errors.Is(err, roadrisk.ErrInvalidScenario) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: remote %s: %v", roadrisk.ErrOracleUnavailable, r.baseURL, err)
	}
	return risk, nil
}

func (r *Remote) attempt(ctx context.Context, body []byte) (float64, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/predict", bytes.NewReader(body))
	if err != nil {
		return 0, backoff.Permanent(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("calling remote oracle: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, backoff.Permanent(fmt.Errorf("%w: %s", roadrisk.ErrInvalidScenario, bytes.TrimSpace(msg)))
	case resp.StatusCode >= 500:
		return 0, fmt.Errorf("remote oracle returned %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return 0, backoff.Permanent(fmt.Errorf("remote oracle returned %d", resp.StatusCode))
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return 0, backoff.Permanent(fmt.Errorf("decoding response: %w", err))
	}
	if pr.AccidentRisk == nil || *pr.AccidentRisk < 0 || *pr.AccidentRisk > 1 {
		return 0, backoff.Permanent(errors.New("remote oracle returned no risk in [0,1]"))
	}
	return *pr.AccidentRisk, nil
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	return b
}
