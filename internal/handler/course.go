package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/courseloop/academy-server-go/internal/middleware"
	"github.com/courseloop/academy-server-go/internal/repository"
	"github.com/courseloop/academy-server-go/internal/service"
)

type CourseHandler struct {
	courses         repository.CourseRepository
	enrolls         repository.EnrollmentRepository
	progressService *service.ProgressService
}

func NewCourseHandler(
	courses repository.CourseRepository,
	enrolls repository.EnrollmentRepository,
	progressService *service.ProgressService,
) *CourseHandler {
	return &CourseHandler{courses: courses, enrolls: enrolls, progressService: progressService}
}

func (h *CourseHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{courseID}/outline", h.Outline)

	return r
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.ListPublished(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"courses": courses})
}

// Outline returns the viewer's computed access state for a course.
// Anonymous viewers get the free-preview slice; the session middleware
// runs in optional mode on this route.
func (h *CourseHandler) Outline(w http.ResponseWriter, r *http.Request) {
	userID := ""
	if user := middleware.GetUser(r.Context()); user != nil {
		userID = user.ID
	}

	access, err := h.progressService.CourseAccessFor(r.Context(), userID, chi.URLParam(r, "courseID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, access)
}

// Me reports the signed-in user and their enrollments.
func (h *CourseHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	enrollments, err := h.enrolls.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":        user,
		"enrollments": enrollments,
	})
}
