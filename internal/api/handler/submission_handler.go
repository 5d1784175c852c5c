package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"algoarena/internal/api/middleware"
	"algoarena/internal/app/judge"
	"algoarena/internal/app/service"
	"algoarena/internal/common"
	"algoarena/internal/domain/model"
	"algoarena/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SubmissionService is the part of service.SubmissionService the handler needs.
type SubmissionService interface {
	SubmitCode(ctx context.Context, userID, problemID string, req service.SubmitCodeRequest) (*service.SubmitCodeResponse, error)
	RunCode(ctx context.Context, userID, problemID string, req service.SubmitCodeRequest) ([]service.RunCaseResult, error)
	GetSubmission(ctx context.Context, userID, submissionID string) (*model.Submission, error)
	ListHistory(ctx context.Context, userID, problemID string, page, pageSize int) (*service.SubmissionHistory, error)
}

type SubmissionHandler struct {
	submissionService SubmissionService
}

func NewSubmissionHandler(ss SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: ss}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator) // All submission routes require auth
	r.Post("/submit/{problemId}", h.submitCode)
	r.Post("/run/{problemId}", h.runCode)
	r.Get("/history/{problemId}", h.listHistory)
	r.Get("/{submissionId}", h.getSubmission)
}

func (h *SubmissionHandler) submitCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.SubmitCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	resp, err := h.submissionService.SubmitCode(r.Context(), userID, chi.URLParam(r, "problemId"), req)
	if err != nil {
		status := common.HTTPStatusFromError(err)
		if errors.Is(err, judge.ErrInfrastructure) {
			// clients only distinguish judge timeouts from other server faults
			status = http.StatusInternalServerError
		}
		common.RespondWithError(w, status, err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

// runCode answers an empty list when the judge fails, so the editor can keep going.
func (h *SubmissionHandler) runCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.SubmitCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	results, err := h.submissionService.RunCode(r.Context(), userID, chi.URLParam(r, "problemId"), req)
	if err != nil {
		if service.IsJudgeFailure(err) {
			logger.Warn(r.Context(), "run answered empty after judge failure", zap.Error(err))
			common.RespondWithJSON(w, http.StatusOK, []service.RunCaseResult{})
			return
		}
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, results)
}

func (h *SubmissionHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	sub, err := h.submissionService.GetSubmission(r.Context(), userID, chi.URLParam(r, "submissionId"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}

func (h *SubmissionHandler) listHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	history, err := h.submissionService.ListHistory(r.Context(), userID, chi.URLParam(r, "problemId"), page, pageSize)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, history)
}
