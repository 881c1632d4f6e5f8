package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/playperu/roadrisk/internal/oracle"
	"github.com/playperu/roadrisk/internal/roadrisk"
)

type StatusResponse struct {
	Message      string `json:"message"`
	Status       string `json:"status"`
	ModelLoaded  bool   `json:"model_loaded"`
	Oracle       string `json:"oracle,omitempty"`
	ModelVersion string `json:"model_version,omitempty"`
}

type PredictResponse struct {
	AccidentRisk   float64            `json:"accident_risk"`
	RiskLevel      roadrisk.RiskLevel `json:"risk_level"`
	RiskLabel      string             `json:"risk_label"`
	RiskPercentage string             `json:"risk_percentage"`
	Color          string             `json:"color"`
	Emoji          string             `json:"emoji"`
}

type CompareRequest struct {
	A roadrisk.Scenario `json:"a"`
	B roadrisk.Scenario `json:"b"`
}

type CompareResponse struct {
	A      PredictResponse `json:"a"`
	B      PredictResponse `json:"b"`
	Higher int             `json:"higher"`
	Label  string          `json:"higher_label"`
}

func newPredictResponse(risk float64) PredictResponse {
	level := roadrisk.LevelFor(risk)
	return PredictResponse{
		AccidentRisk:   risk,
		RiskLevel:      level,
		RiskLabel:      level.Label(),
		RiskPercentage: roadrisk.Percentage(risk),
		Color:          level.Color(),
		Emoji:          level.Emoji(),
	}
}

func handleStatus(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, StatusResponse{
			Message:      "Road Accident Risk API",
			Status:       "online",
			ModelLoaded:  deps.Oracle != nil,
			Oracle:       deps.OracleSource,
			ModelVersion: deps.ModelVersion,
		})
	}
}

func handlePredict(logger *slog.Logger, o oracle.Oracle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s roadrisk.Scenario
		if err := readJSON(r, &s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.Validate(); err != nil {
			writeDomainError(w, logger, err)
			return
		}
		if o == nil {
			writeDomainError(w, logger, roadrisk.ErrOracleUnavailable)
			return
		}

		risk, err := o.Predict(r.Context(), s)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, newPredictResponse(risk))
	}
}

func handleCompare(logger *slog.Logger, o oracle.Oracle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CompareRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := req.A.Validate(); err != nil {
			writeDomainError(w, logger, fmt.Errorf("scenario a: %w", err))
			return
		}
		if err := req.B.Validate(); err != nil {
			writeDomainError(w, logger, fmt.Errorf("scenario b: %w", err))
			return
		}
		if o == nil {
			writeDomainError(w, logger, roadrisk.ErrOracleUnavailable)
			return
		}

		c, err := oracle.Compare(r.Context(), o, req.A, req.B)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		label := "A"
		if c.Higher == 1 {
			label = "B"
		}
		writeJSON(w, http.StatusOK, CompareResponse{
			A:      newPredictResponse(c.RiskA),
			B:      newPredictResponse(c.RiskB),
			Higher: c.Higher,
			Label:  label,
		})
	}
}
