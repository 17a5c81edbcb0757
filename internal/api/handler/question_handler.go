package handler

import (
	"net/http"

	"brocode_arena/internal/app/service"
	"brocode_arena/internal/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type QuestionHandler struct {
	questionService *service.QuestionService
	log             *zap.Logger
}

func NewQuestionHandler(qs *service.QuestionService, log *zap.Logger) *QuestionHandler {
	return &QuestionHandler{questionService: qs, log: log}
}

func (h *QuestionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/public/all", h.list)
	r.Get("/public/{questionID}", h.get)
}

func (h *QuestionHandler) list(w http.ResponseWriter, r *http.Request) {
	qs, err := h.questionService.ListActive(r.Context())
	if err != nil {
		h.log.Error("question list failed", zap.Error(err))
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, qs)
}

func (h *QuestionHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := questionIDParam(w, r)
	if !ok {
		return
	}
	q, err := h.questionService.Get(r.Context(), id)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, q)
}
