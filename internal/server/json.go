package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/roadrisk/internal/game"
	"github.com/playperu/roadrisk/internal/roadrisk"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// errorStatus maps domain errors onto HTTP status codes. Anything it does
// not recognise is a 500.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, roadrisk.ErrInvalidScenario),
		errors.Is(err, roadrisk.ErrInvalidDifficulty),
		errors.Is(err, game.ErrInvalidChoice):
		return http.StatusBadRequest
	case errors.Is(err, roadrisk.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, roadrisk.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, roadrisk.ErrOracleUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is the client-facing text for err. Internal failures are
// not described beyond "internal error".
func errorMessage(err error, status int) string {
	switch status {
	case http.StatusInternalServerError:
		return "internal error"
	case http.StatusServiceUnavailable:
		return roadrisk.ErrOracleUnavailable.Error()
	default:
		return err.Error()
	}
}

func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	}
	writeError(w, status, errorMessage(err, status))
}
