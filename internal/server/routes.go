package server

import (
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/roadrisk/internal/handler/health"
	"github.com/playperu/roadrisk/internal/metrics"
)

func addRoutes(r chi.Router, deps Deps) {
	logger := deps.Logger
	broker := NewBroker()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Road Risk API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, deps.Health).Routes())
	r.Handle("/metrics", metrics.Handler())
	r.Get("/ws/play", handleWSPlay(logger, deps.Sessions, deps.DefaultDifficulty))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", handleStatus(deps))
		r.Post("/predict", handlePredict(logger, deps.Oracle))
		r.Post("/compare", handleCompare(logger, deps.Oracle))

		r.Get("/scenarios/random", handleRandomScenario(logger))
		r.Get("/scenarios/contrasting", handleContrastingScenarios(logger, deps.DefaultDifficulty))

		r.Post("/sessions", handleCreateSession(logger, deps.Sessions, deps.DefaultDifficulty))
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Use(sessionMiddleware(deps.Sessions))
			r.Get("/", handleGetSession(logger, deps.Sessions))
			r.Post("/choice", handleChoice(logger, deps.Sessions, broker))
			r.Post("/next", handleNext(logger, deps.Sessions, broker))
			r.Post("/reset", handleReset(logger, deps.Sessions, broker))
			r.Put("/difficulty", handleSetDifficulty(logger, deps.Sessions, broker))
			r.Post("/finish", handleFinish(logger, deps.Sessions, deps.Leaderboard, broker))
			r.Get("/events", handleEvents(deps.Sessions, broker))
		})

		r.Get("/leaderboard", handleLeaderboard(logger, deps.Leaderboard))
	})

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}
