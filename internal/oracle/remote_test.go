package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/roadrisk/internal/roadrisk"
)

func TestRemotePredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/predict" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var s roadrisk.Scenario
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"accident_risk": float64(s.NumLanes) / 10})
	}))
	defer srv.Close()

	s := baseScenario()
	s.NumLanes = 3
	risk, err := NewRemote(srv.URL+"/", time.Second).Predict(context.Background(), s)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, risk, 1e-9)
}

func TestRemoteRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"accident_risk": 0.5})
	}))
	defer srv.Close()

	risk, err := NewRemote(srv.URL, time.Second).Predict(context.Background(), baseScenario())
	require.NoError(t, err)
	assert.Equal(t, 0.5, risk)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRemoteGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewRemote(srv.URL, time.Second, WithMaxTries(2)).Predict(context.Background(), baseScenario())
	assert.ErrorIs(t, err, roadrisk.ErrOracleUnavailable)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRemoteBadRequestIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"invalid scenario"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewRemote(srv.URL, time.Second).Predict(context.Background(), baseScenario())
	assert.ErrorIs(t, err, roadrisk.ErrInvalidScenario)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRemoteRejectsOutOfRangeRisk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"accident_risk": 1.7})
	}))
	defer srv.Close()

	_, err := NewRemote(srv.URL, time.Second).Predict(context.Background(), baseScenario())
	assert.ErrorIs(t, err, roadrisk.ErrOracleUnavailable)
}

func TestRemoteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewRemote(url, 100*time.Millisecond, WithMaxTries(1)).Predict(context.Background(), baseScenario())
	assert.ErrorIs(t, err, roadrisk.ErrOracleUnavailable)
}
