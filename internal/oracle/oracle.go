// Package oracle is the boundary to the accident-risk model. Everything the
// game needs from the model goes through the Oracle interface, so the model,
// a remote instance, a cache or a test stub are interchangeable.
package oracle

import (
	"context"
	"fmt"

	"github.com/playperu/roadrisk/internal/roadrisk"
)

// Oracle maps a scenario to an accident risk in [0,1]. Implementations fail
// with an error wrapping roadrisk.ErrOracleUnavailable when they cannot
// produce a value.
type Oracle interface {
	Predict(ctx context.Context, s roadrisk.Scenario) (float64, error)
}

// Func adapts a plain function to Oracle.
type Func func(ctx context.Context, s roadrisk.Scenario) (float64, error)

func (f Func) Predict(ctx context.Context, s roadrisk.Scenario) (float64, error) {
	return f(ctx, s)
}

// Comparison is the outcome of ranking two scenarios.
type Comparison struct {
	RiskA  float64 `json:"risk_a"`
	RiskB  float64 `json:"risk_b"`
	Higher int     `json:"higher"` // 0 for A, 1 for B
}

// Compare predicts both scenarios and reports which one is riskier. An exact
// tie goes to index 1.
func Compare(ctx context.Context, o Oracle, a, b roadrisk.Scenario) (Comparison, error) {
	ra, err := o.Predict(ctx, a)
	if err != nil {
		return Comparison{}, fmt.Errorf("predicting scenario a: %w", err)
	}
	rb, err := o.Predict(ctx, b)
	if err != nil {
		return Comparison{}, fmt.Errorf("predicting scenario b: %w", err)
	}

	c := Comparison{RiskA: ra, RiskB: rb, Higher: 1}
	if ra > rb {
		c.Higher = 0
	}
	return c, nil
}

// Fixed returns an oracle that always predicts risk. Handy for stubbing.
func Fixed(risk float64) Oracle {
	return Func(func(context.Context, roadrisk.Scenario) (float64, error) {
		return risk, nil
	})
}
