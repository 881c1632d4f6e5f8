package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/roadrisk/internal/game"
	"github.com/playperu/roadrisk/internal/metrics"
	"github.com/playperu/roadrisk/internal/roadrisk"
)

// PlayCommand is a client message on /ws/play.
type PlayCommand struct {
	Type       string `json:"type"` // choose, next, reset, difficulty
	Choice     string `json:"choice,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// PlayReply is a server message on /ws/play.
type PlayReply struct {
	Type    string            `json:"type"` // view, result, error
	Session *game.View        `json:"session,omitempty"`
	Result  *game.RoundResult `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
	Status  int               `json:"status,omitempty"`
}

var errUnknownCommand = errors.New("unknown command")

// handleWSPlay runs one session per connection. The session is created on
// accept and dropped when the socket closes.
func handleWSPlay(logger *slog.Logger, sessions *game.Registry, fallback roadrisk.Difficulty) http.HandlerFunc {
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

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		metrics.ActiveWebSocketClients.Inc()
		defer metrics.ActiveWebSocketClients.Dec()

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
		defer cancel()

		view, err := sessions.Create(d, r.URL.Query().Get("player"))
		if err != nil {
			logger.Error("creating ws session", "error", err)
			conn.Close(websocket.StatusInternalError, "internal error")
			return
		}
		defer sessions.Delete(view.ID)

		if err := wsjson.Write(ctx, conn, PlayReply{Type: "view", Session: &view}); err != nil {
			return
		}

		for {
			var cmd PlayCommand
			if err := wsjson.Read(ctx, conn, &cmd); err != nil {
				logger.Debug("websocket read ended", "error", err)
				return
			}

			reply, err := playStep(ctx, sessions, view.ID, cmd)
			if err != nil {
				reply = errorReply(err)
				if reply.Status >= http.StatusInternalServerError {
					logger.Error("ws play command failed", "session_id", view.ID, "command", cmd.Type, "error", err)
				}
			}
			if err := wsjson.Write(ctx, conn, reply); err != nil {
				logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

func playStep(ctx context.Context, sessions *game.Registry, id string, cmd PlayCommand) (PlayReply, error) {
	var reply PlayReply
	err := sessions.Do(id, func(s *game.Session) error {
		switch cmd.Type {
		case "choose":
			choice, err := game.ParseChoice(cmd.Choice)
			if err != nil {
				return err
			}
			res, err := s.Submit(ctx, choice)
			if err != nil {
				return err
			}
			reply = PlayReply{Type: "result", Result: &res}
		case "next":
			if _, err := s.Next(); err != nil {
				return err
			}
			reply = PlayReply{Type: "view"}
		case "reset":
			s.Reset()
			reply = PlayReply{Type: "view"}
		case "difficulty":
			d, err := roadrisk.ParseDifficulty(cmd.Difficulty)
			if err != nil {
				return err
			}
			if err := s.SetDifficulty(d); err != nil {
				return err
			}
			reply = PlayReply{Type: "view"}
		default:
			return fmt.Errorf("%w: %q", errUnknownCommand, cmd.Type)
		}
		v := s.View()
		reply.Session = &v
		return nil
	})
	return reply, err
}

func errorReply(err error) PlayReply {
	status := errorStatus(err)
	if errors.Is(err, errUnknownCommand) {
		status = http.StatusBadRequest
	}
	return PlayReply{Type: "error", Error: errorMessage(err, status), Status: status}
}
