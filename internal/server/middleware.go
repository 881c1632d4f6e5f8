package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/roadrisk/internal/game"
)

type ctxKey int

const ctxKeySession ctxKey = iota

// sessionMiddleware rejects requests for unknown sessions before they reach
// a handler and stores the session ID on the context.
func sessionMiddleware(sessions *game.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "sessionID")
			if id == "" {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}
			if _, err := sessions.View(id); err != nil {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySession, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionID(r *http.Request) string {
	return r.Context().Value(ctxKeySession).(string)
}
