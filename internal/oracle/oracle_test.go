package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/roadrisk/internal/metrics"
	"github.com/playperu/roadrisk/internal/roadrisk"
)

// byLanes predicts a risk keyed on lane count so tests can steer A and B.
func byLanes(risks map[int]float64) Oracle {
	return Func(func(_ context.Context, s roadrisk.Scenario) (float64, error) {
		return risks[s.NumLanes], nil
	})
}

func TestCompare(t *testing.T) {
	a, b := baseScenario(), baseScenario()
	a.NumLanes, b.NumLanes = 1, 2

	tests := []struct {
		name       string
		riskA      float64
		riskB      float64
		wantHigher int
	}{
		{"a riskier", 0.7, 0.3, 0},
		{"b riskier", 0.2, 0.6, 1},
		{"tie goes to b", 0.5, 0.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := byLanes(map[int]float64{1: tt.riskA, 2: tt.riskB})
			c, err := Compare(context.Background(), o, a, b)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHigher, c.Higher)
			assert.Equal(t, tt.riskA, c.RiskA)
			assert.Equal(t, tt.riskB, c.RiskB)
		})
	}
}

func TestCompareWrapsOracleFailure(t *testing.T) {
	o := Func(func(context.Context, roadrisk.Scenario) (float64, error) {
		return 0, roadrisk.ErrOracleUnavailable
	})
	_, err := Compare(context.Background(), o, baseScenario(), baseScenario())
	assert.ErrorIs(t, err, roadrisk.ErrOracleUnavailable)
}

func TestFixed(t *testing.T) {
	r, err := Fixed(0.42).Predict(context.Background(), baseScenario())
	require.NoError(t, err)
	assert.Equal(t, 0.42, r)
}

func TestInstrumentedCountsResults(t *testing.T) {
	const source = "instrumented-test"
	ok := NewInstrumented(Fixed(0.3), source)
	bad := NewInstrumented(Func(func(context.Context, roadrisk.Scenario) (float64, error) {
		return 0, errors.New("boom")
	}), source)

	_, err := ok.Predict(context.Background(), baseScenario())
	require.NoError(t, err)
	_, err = bad.Predict(context.Background(), baseScenario())
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PredictionsTotal.WithLabelValues(source, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PredictionsTotal.WithLabelValues(source, "unavailable")))
}
