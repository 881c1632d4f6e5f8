package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/playperu/roadrisk/internal/leaderboard"
)

type LeaderboardResponse struct {
	Entries []leaderboard.Entry `json:"entries"`
}

func handleLeaderboard(logger *slog.Logger, board leaderboard.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if q := r.URL.Query().Get("limit"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil {
				writeError(w, http.StatusBadRequest, "limit must be an integer")
				return
			}
			limit = n
		}

		entries, err := board.Top(r.Context(), leaderboard.ClampLimit(limit))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		if entries == nil {
			entries = []leaderboard.Entry{}
		}
		writeJSON(w, http.StatusOK, LeaderboardResponse{Entries: entries})
	}
}
