package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/playperu/roadrisk/internal/handler/health"
)

func ok(context.Context) error { return nil }

func failing(msg string) health.CheckerFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func checkAll(t *testing.T, checks map[string]health.Checker) (int, map[string]struct{ Status string }) {
	t.Helper()
	rec := httptest.NewRecorder()
	health.NewHandler(slog.Default(), checks).Routes().
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var body map[string]struct{ Status string }
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return rec.Code, body
}

func TestDependencyChecks(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]health.Checker
		code   int
		want   map[string]string
	}{
		{
			name:   "sqlite and embedded model",
			checks: map[string]health.Checker{"sqlite": health.CheckerFunc(ok), "oracle": health.CheckerFunc(ok)},
			code:   http.StatusOK,
			want:   map[string]string{"sqlite": "ok", "oracle": "ok"},
		},
		{
			name: "redis cache unreachable",
			checks: map[string]health.Checker{
				"sqlite": health.CheckerFunc(ok),
				"redis":  failing("connection refused"),
				"oracle": health.CheckerFunc(ok),
			},
			code: http.StatusServiceUnavailable,
			want: map[string]string{"sqlite": "ok", "redis": "error", "oracle": "ok"},
		},
		{
			name: "remote oracle failing",
			checks: map[string]health.Checker{
				"sqlite": health.CheckerFunc(ok),
				"oracle": failing("remote returned 502"),
			},
			code: http.StatusServiceUnavailable,
			want: map[string]string{"sqlite": "ok", "oracle": "error"},
		},
		{
			name:   "nothing configured",
			checks: map[string]health.Checker{},
			code:   http.StatusOK,
			want:   map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := checkAll(t, tt.checks)
			if code != tt.code {
				t.Errorf("status = %d, want %d", code, tt.code)
			}
			if len(body) != len(tt.want) {
				t.Errorf("got %d checks, want %d", len(body), len(tt.want))
			}
			for name, want := range tt.want {
				if got := body[name].Status; got != want {
					t.Errorf("%s = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestSlowCheckHitsDeadline(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the check deadline")
	}
	slow := health.CheckerFunc(func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Minute):
			return nil
		}
	})

	start := time.Now()
	code, body := checkAll(t, map[string]health.Checker{"oracle": slow, "sqlite": health.CheckerFunc(ok)})
	if code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
	if body["oracle"].Status != "error" || body["sqlite"].Status != "ok" {
		t.Errorf("body = %+v", body)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("check took %v", elapsed)
	}
}
