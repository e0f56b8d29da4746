package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/courseloop/academy-server-go/internal/errors"
	"github.com/courseloop/academy-server-go/internal/middleware"
	"github.com/courseloop/academy-server-go/internal/service"
)

type QuizHandler struct {
	quizService *service.QuizService
}

func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

func (h *QuizHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{quizID}", h.Get)
	r.Post("/{quizID}/submit", h.Submit)
	r.Get("/{quizID}/attempts", h.Attempts)

	return r
}

// Get serves the quiz for taking: questions and answer text only.
func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("not signed in"))
		return
	}

	view, err := h.quizService.GetQuiz(r.Context(), user.ID, chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

type submitQuizRequest struct {
	Answers map[string][]string `json:"answers" validate:"required"`
}

func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("not signed in"))
		return
	}

	var req submitQuizRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.quizService.SubmitQuiz(r.Context(), user.ID, chi.URLParam(r, "quizID"), req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *QuizHandler) Attempts(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("not signed in"))
		return
	}

	attempts, err := h.quizService.ListAttempts(r.Context(), user.ID, chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}
