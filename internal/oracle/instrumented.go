package oracle

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/playperu/roadrisk/internal/metrics"
	"github.com/playperu/roadrisk/internal/roadrisk"
	"github.com/playperu/roadrisk/internal/telemetry"
)

// Instrumented records a span and Prometheus metrics around every
// prediction, labelled by source.
type Instrumented struct {
	next   Oracle
	source string
}

func NewInstrumented(next Oracle, source string) *Instrumented {
	return &Instrumented{next: next, source: source}
}

func (i *Instrumented) Predict(ctx context.Context, s roadrisk.Scenario) (float64, error) {
	ctx, span := telemetry.StartSpan(ctx, "oracle.Predict",
		attribute.String("oracle.source", i.source),
		attribute.String("scenario.road_type", string(s.RoadType)),
	)
	defer span.End()

	start := time.Now()
	risk, err := i.next.Predict(ctx, s)
	metrics.PredictionDuration.WithLabelValues(i.source).Observe(time.Since(start).Seconds())

	result := "ok"
	switch {
	case err == nil:
		span.SetAttributes(attribute.Float64("oracle.risk", risk))
	case errors.Is(err, roadrisk.ErrInvalidScenario):
		result = "invalid"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	default:
		result = "unavailable"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.PredictionsTotal.WithLabelValues(i.source, result).Inc()

	return risk, err
}
