package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/courseloop/academy-server-go/internal/errors"
	"github.com/courseloop/academy-server-go/internal/middleware"
	"github.com/courseloop/academy-server-go/internal/service"
)

type ProgressHandler struct {
	progressService *service.ProgressService
}

func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

func (h *ProgressHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/complete", h.Complete)
	return r
}

type completeLessonRequest struct {
	LessonID string `json:"lessonId" validate:"required"`
}

func (h *ProgressHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("not signed in"))
		return
	}

	var req completeLessonRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.progressService.CompleteLesson(r.Context(), user.ID, req.LessonID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
