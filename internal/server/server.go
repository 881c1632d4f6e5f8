package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/playperu/roadrisk/internal/game"
	"github.com/playperu/roadrisk/internal/handler/health"
	"github.com/playperu/roadrisk/internal/leaderboard"
	"github.com/playperu/roadrisk/internal/metrics"
	"github.com/playperu/roadrisk/internal/oracle"
	"github.com/playperu/roadrisk/internal/roadrisk"
)

// Deps are the collaborators the HTTP layer serves.
type Deps struct {
	Logger            *slog.Logger
	Oracle            oracle.Oracle
	OracleSource      string
	ModelVersion      string
	Sessions          *game.Registry
	Leaderboard       leaderboard.Store
	Health            map[string]health.Checker
	DefaultDifficulty roadrisk.Difficulty
	SPADir            string
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

func New(addr string, deps Deps) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(deps),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: deps.Logger,
	}
}

// NewHandler builds the full router. Tests use it directly with httptest.
func NewHandler(deps Deps) http.Handler {
	if deps.DefaultDifficulty == "" {
		deps.DefaultDifficulty = roadrisk.DefaultDifficulty
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(deps.Logger))
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)

	addRoutes(r, deps)
	return r
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
