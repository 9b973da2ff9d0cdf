package handlers

import (
	"context"
	"net/http"

	"github.com/Dosada05/league-system/models"
)

// LeaderboardSource is satisfied by *services.StandingsEngine.
type LeaderboardSource interface {
	Leaderboard(ctx context.Context) ([]models.Standing, error)
}

type LeaderboardHandler struct {
	source LeaderboardSource
}

func NewLeaderboardHandler(source LeaderboardSource) *LeaderboardHandler {
	return &LeaderboardHandler{source: source}
}

func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	standings, err := h.source.Leaderboard(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{"standings": standings})
}
