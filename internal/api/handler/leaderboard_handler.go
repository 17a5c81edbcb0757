package handler

import (
	"net/http"

	"brocode_arena/internal/app/service"
	"brocode_arena/internal/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
	log                *zap.Logger
}

func NewLeaderboardHandler(ls *service.LeaderboardService, log *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: ls, log: log}
}

func (h *LeaderboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.rank)
}

func (h *LeaderboardHandler) rank(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboardService.Rank(r.Context())
	if err != nil {
		h.log.Error("leaderboard failed", zap.Error(err))
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}
