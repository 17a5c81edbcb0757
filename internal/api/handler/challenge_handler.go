package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"brocode_arena/internal/api/middleware"
	"brocode_arena/internal/app/service"
	"brocode_arena/internal/common"
	"brocode_arena/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ChallengeHandler struct {
	sessionService    *service.SessionService
	submissionService *service.SubmissionService
	executeLimiter    *middleware.TeamRateLimiter
	maxUploadBytes    int64
	log               *zap.Logger
}

func NewChallengeHandler(
	ss *service.SessionService,
	subs *service.SubmissionService,
	limiter *middleware.TeamRateLimiter,
	maxUploadBytes int64,
	log *zap.Logger,
) *ChallengeHandler {
	return &ChallengeHandler{
		sessionService:    ss,
		submissionService: subs,
		executeLimiter:    limiter,
		maxUploadBytes:    maxUploadBytes,
		log:               log,
	}
}

func (h *ChallengeHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator) // All challenge routes require auth
	r.Post("/start", h.start)
	r.Get("/status", h.status)
	r.Put("/submission/{questionID}", h.updateSubmission)
	r.With(h.executeLimiter.Middleware).Post("/execute/{questionID}", h.execute)
	r.Post("/upload/{questionID}", h.upload)
	r.Post("/submit", h.submit)
}

type updateSubmissionRequest struct {
	CodeAnswer *string                 `json:"code_answer"`
	Status     *model.SubmissionStatus `json:"status"`
}

func (h *ChallengeHandler) start(w http.ResponseWriter, r *http.Request) {
	teamID, ok := middleware.GetTeamIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing team context")
		return
	}
	resp, err := h.sessionService.Start(r.Context(), teamID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *ChallengeHandler) status(w http.ResponseWriter, r *http.Request) {
	teamID, ok := middleware.GetTeamIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing team context")
		return
	}
	resp, err := h.sessionService.Status(r.Context(), teamID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *ChallengeHandler) updateSubmission(w http.ResponseWriter, r *http.Request) {
	teamID, ok := middleware.GetTeamIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing team context")
		return
	}
	questionID, ok := questionIDParam(w, r)
	if !ok {
		return
	}

	var req updateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	sub, err := h.sessionService.UpdateSubmission(r.Context(), teamID, model.SubmissionUpdate{
		QuestionID: questionID,
		CodeAnswer: req.CodeAnswer,
		Status:     req.Status,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Submission updated successfully",
		"submission": sub,
	})
}

func (h *ChallengeHandler) execute(w http.ResponseWriter, r *http.Request) {
	teamID, ok := middleware.GetTeamIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing team context")
		return
	}
	questionID, ok := questionIDParam(w, r)
	if !ok {
		return
	}

	var req service.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	res, err := h.submissionService.Execute(r.Context(), teamID, questionID, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, res)
}

func (h *ChallengeHandler) upload(w http.ResponseWriter, r *http.Request) {
	teamID, ok := middleware.GetTeamIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing team context")
		return
	}
	leaderID, _ := middleware.GetLeaderIDFromContext(r.Context())
	questionID, ok := questionIDParam(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.RespondWithError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	resp, err := h.submissionService.Upload(r.Context(), teamID, leaderID, questionID, header.Filename, file)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *ChallengeHandler) submit(w http.ResponseWriter, r *http.Request) {
	teamID, ok := middleware.GetTeamIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing team context")
		return
	}

	var req service.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	summary, err := h.sessionService.Submit(r.Context(), teamID, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":           "Challenge submitted successfully",
		"session_id":        summary.SessionID,
		"total_saved":       summary.TotalSaved,
		"total_flagged":     summary.TotalFlagged,
		"total_unattempted": summary.TotalUnattempted,
		"total_submitted":   summary.TotalSubmitted,
	})
}

func (h *ChallengeHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if common.HTTPStatusFromError(err) >= http.StatusInternalServerError {
		h.log.Error("challenge request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	common.RespondWithDomainError(w, err)
}

func questionIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
	if err != nil || id <= 0 {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid question id")
		return 0, false
	}
	return id, true
}
