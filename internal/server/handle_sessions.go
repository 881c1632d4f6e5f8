package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/playperu/roadrisk/internal/game"
	"github.com/playperu/roadrisk/internal/leaderboard"
	"github.com/playperu/roadrisk/internal/metrics"
	"github.com/playperu/roadrisk/internal/roadrisk"
)

type CreateSessionRequest struct {
	Difficulty string `json:"difficulty"`
	PlayerName string `json:"playerName"`
}

type ChoiceRequest struct {
	Choice string `json:"choice"`
}

type ChoiceResponse struct {
	Result  game.RoundResult `json:"result"`
	Session game.View        `json:"session"`
}

type DifficultyRequest struct {
	Difficulty string `json:"difficulty"`
}

type FinishRequest struct {
	PlayerName string `json:"playerName"`
}

type FinishResponse struct {
	Entry   leaderboard.Entry `json:"entry"`
	Session game.View         `json:"session"`
}

// readOptionalJSON is readJSON that treats an empty body as a zero value.
func readOptionalJSON(r *http.Request, v any) error {
	if err := readJSON(r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func handleCreateSession(logger *slog.Logger, sessions *game.Registry, fallback roadrisk.Difficulty) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if err := readOptionalJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		d := fallback
		if req.Difficulty != "" {
			parsed, err := roadrisk.ParseDifficulty(req.Difficulty)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			d = parsed
		}

		view, err := sessions.Create(d, strings.TrimSpace(req.PlayerName))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		logger.Info("session created", "session_id", view.ID, "difficulty", d)
		writeJSON(w, http.StatusCreated, view)
	}
}

func handleGetSession(logger *slog.Logger, sessions *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := sessions.View(sessionID(r))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func handleChoice(logger *slog.Logger, sessions *game.Registry, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChoiceRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		choice, err := game.ParseChoice(req.Choice)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		var resp ChoiceResponse
		err = sessions.Do(sessionID(r), func(s *game.Session) error {
			res, err := s.Submit(r.Context(), choice)
			if err != nil {
				return err
			}
			resp = ChoiceResponse{Result: res, Session: s.View()}
			return nil
		})
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		broker.Publish(SSEEvent{Type: EventRound, Session: resp.Session, Result: &resp.Result})
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleNext(logger *slog.Logger, sessions *game.Registry, broker *Broker) http.HandlerFunc {
	return sessionTransition(logger, sessions, broker, EventNext, func(r *http.Request, s *game.Session) error {
		_, err := s.Next()
		return err
	})
}

func handleReset(logger *slog.Logger, sessions *game.Registry, broker *Broker) http.HandlerFunc {
	return sessionTransition(logger, sessions, broker, EventReset, func(r *http.Request, s *game.Session) error {
		s.Reset()
		return nil
	})
}

func handleSetDifficulty(logger *slog.Logger, sessions *game.Registry, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DifficultyRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		d, err := roadrisk.ParseDifficulty(req.Difficulty)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		sessionTransition(logger, sessions, broker, EventDifficulty, func(_ *http.Request, s *game.Session) error {
			return s.SetDifficulty(d)
		})(w, r)
	}
}

// sessionTransition applies fn under the session lock, then publishes and
// returns the resulting view.
func sessionTransition(
	logger *slog.Logger,
	sessions *game.Registry,
	broker *Broker,
	event string,
	fn func(*http.Request, *game.Session) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var view game.View
		err := sessions.Do(sessionID(r), func(s *game.Session) error {
			if err := fn(r, s); err != nil {
				return err
			}
			view = s.View()
			return nil
		})
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		broker.Publish(SSEEvent{Type: event, Session: view})
		writeJSON(w, http.StatusOK, view)
	}
}

// handleFinish ends the run: its counters go to the leaderboard and the
// session leaves the registry. A run with no answered rounds is refused, and
// a failed insert leaves the session playable.
func handleFinish(logger *slog.Logger, sessions *game.Registry, board leaderboard.Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FinishRequest
		if err := readOptionalJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		id := sessionID(r)
		var entry leaderboard.Entry
		view, err := sessions.Finish(id, func(s *game.Session) error {
			st := s.State()
			if st.GamesPlayed == 0 {
				return fmt.Errorf("finishing a run with no rounds: %w", roadrisk.ErrInvalidTransition)
			}

			name := strings.TrimSpace(req.PlayerName)
			if name == "" {
				name = s.PlayerName
			}
			var err error
			entry, err = board.Submit(r.Context(), leaderboard.Entry{
				PlayerName:  name,
				Score:       st.Score,
				GamesPlayed: st.GamesPlayed,
				GamesWon:    st.GamesWon,
				BestStreak:  st.BestStreak,
				Difficulty:  s.Difficulty(),
			})
			if err != nil {
				return fmt.Errorf("saving run: %w", err)
			}
			return nil
		})
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		metrics.LeaderboardSubmissions.Inc()
		logger.Info("run finished", "session_id", id, "score", entry.Score, "entry_id", entry.ID)

		broker.Publish(SSEEvent{Type: EventFinished, Session: view})
		writeJSON(w, http.StatusCreated, FinishResponse{Entry: entry, Session: view})
	}
}
