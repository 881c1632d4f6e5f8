package server

import (
	"log/slog"
	"net/http"

	"github.com/playperu/roadrisk/internal/roadrisk"
	"github.com/playperu/roadrisk/internal/scenario"
)

type ScenarioResponse struct {
	Scenario    roadrisk.Scenario `json:"scenario"`
	Description string            `json:"description"`
}

type PairResponse struct {
	Difficulty roadrisk.Difficulty `json:"difficulty"`
	A          ScenarioResponse    `json:"a"`
	B          ScenarioResponse    `json:"b"`
}

// Generators are not safe for concurrent use, so each request seeds its own.

func handleRandomScenario(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gen, err := scenario.NewRandom()
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		s := gen.Generate()
		writeJSON(w, http.StatusOK, ScenarioResponse{Scenario: s, Description: scenario.Describe(s)})
	}
}

func handleContrastingScenarios(logger *slog.Logger, fallback roadrisk.Difficulty) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := fallback
		if q := r.URL.Query().Get("difficulty"); q != "" {
			parsed, err := roadrisk.ParseDifficulty(q)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			d = parsed
		}

		gen, err := scenario.NewRandom()
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		p, err := gen.Contrasting(d)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, PairResponse{
			Difficulty: d,
			A:          ScenarioResponse{Scenario: p.A, Description: scenario.Describe(p.A)},
			B:          ScenarioResponse{Scenario: p.B, Description: scenario.Describe(p.B)},
		})
	}
}
