package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/roadrisk/internal/game"
	"github.com/playperu/roadrisk/internal/roadrisk"
)

func TestHandleWSPlay(t *testing.T) {
	deps := testDeps(t)
	srv := httptest.NewServer(newTestHandler(t, deps))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + srv.URL[len("http"):] + "/ws/play?difficulty=easy&player=Quispe"

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	var hello PlayReply
	if err := wsjson.Read(ctx, conn, &hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Type != "view" || hello.Session == nil {
		t.Fatalf("hello = %+v", hello)
	}
	if hello.Session.Difficulty != roadrisk.DifficultyEasy || hello.Session.PlayerName != "Quispe" {
		t.Errorf("session = %+v", hello.Session)
	}
	if deps.Sessions.Len() != 1 {
		t.Errorf("expected 1 live session, got %d", deps.Sessions.Len())
	}

	steps := []struct {
		cmd    PlayCommand
		typ    string
		status int
		check  func(t *testing.T, r PlayReply)
	}{
		{PlayCommand{Type: "choose", Choice: "B"}, "result", 0, func(t *testing.T, r PlayReply) {
			if r.Result == nil || !r.Result.Correct || r.Result.Points != 20 {
				t.Errorf("result = %+v", r.Result)
			}
		}},
		{PlayCommand{Type: "choose", Choice: "A"}, "error", http.StatusConflict, nil},
		{PlayCommand{Type: "next"}, "view", 0, func(t *testing.T, r PlayReply) {
			if r.Session.Phase != game.PhaseAwaitingChoice {
				t.Errorf("phase = %q", r.Session.Phase)
			}
		}},
		{PlayCommand{Type: "difficulty", Difficulty: "ultra"}, "error", http.StatusBadRequest, nil},
		{PlayCommand{Type: "difficulty", Difficulty: "hard"}, "view", 0, func(t *testing.T, r PlayReply) {
			if r.Session.Difficulty != roadrisk.DifficultyHard {
				t.Errorf("difficulty = %q", r.Session.Difficulty)
			}
		}},
		{PlayCommand{Type: "choose", Choice: "X"}, "error", http.StatusBadRequest, nil},
		{PlayCommand{Type: "dance"}, "error", http.StatusBadRequest, nil},
		{PlayCommand{Type: "reset"}, "view", 0, func(t *testing.T, r PlayReply) {
			if r.Session.State != (game.State{}) {
				t.Errorf("state after reset = %+v", r.Session.State)
			}
		}},
	}

	for _, step := range steps {
		if err := wsjson.Write(ctx, conn, step.cmd); err != nil {
			t.Fatalf("write %+v: %v", step.cmd, err)
		}
		var reply PlayReply
		if err := wsjson.Read(ctx, conn, &reply); err != nil {
			t.Fatalf("read after %+v: %v", step.cmd, err)
		}
		if reply.Type != step.typ || reply.Status != step.status {
			t.Fatalf("%+v: got type %q status %d (%s)", step.cmd, reply.Type, reply.Status, reply.Error)
		}
		if step.check != nil {
			step.check(t, reply)
		}
	}

	conn.Close(websocket.StatusNormalClosure, "done")

	deadline := time.Now().Add(2 * time.Second)
	for deps.Sessions.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := deps.Sessions.Len(); n != 0 {
		t.Errorf("session not dropped after close: %d live", n)
	}
}

func TestHandleWSPlayRejectsBadDifficulty(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t, testDeps(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws/play?difficulty=ultra")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
