package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/gradebook/internal/auth"
	"github.com/upb/gradebook/models"
	"github.com/upb/gradebook/services"
	"github.com/upb/gradebook/utils"
	"github.com/upb/gradebook/views"
	"go.uber.org/zap"
)

// MsgInvalidCourseID is returned when a course path parameter is not a UUID
const MsgInvalidCourseID = "Invalid course id"

// CourseService is the course catalogue the handlers read from
type CourseService interface {
	List(ctx context.Context) ([]*models.Course, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Course, error)
	Create(ctx context.Context, input services.CreateCourseInput) (*models.Course, error)
	Update(ctx context.Context, id uuid.UUID, input services.UpdateCourseInput) (*models.Course, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CourseHandler serves courses on both the API and the browser chain
type CourseHandler struct {
	courses  CourseService
	renderer *views.Renderer
	logger   *zap.Logger
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(courses CourseService, renderer *views.Renderer, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		courses:  courses,
		renderer: renderer,
		logger:   logger,
	}
}

// HandleList handles GET /api/courses
func (h *CourseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, courses)
}

// HandleGet handles GET /api/courses/{id}
func (h *CourseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ValidateUUID(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, MsgInvalidCourseID, nil)
		return
	}

	course, err := h.courses.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, course)
}

// HandleCreate handles POST /api/courses. Only administrators may change
// the catalogue; any authenticated caller may read it.
func (h *CourseHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	var input services.CreateCourseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		_ = utils.WriteBadRequest(w, MsgInvalidBody, nil)
		return
	}

	course, err := h.courses.Create(r.Context(), input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("course added via api",
		zap.String("by", p.Username()),
		zap.String("code", course.Code))
	_ = utils.WriteCreated(w, course)
}

// HandleUpdate handles PUT /api/courses/{id}
func (h *CourseHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	id, err := utils.ValidateUUID(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, MsgInvalidCourseID, nil)
		return
	}

	var input services.UpdateCourseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		_ = utils.WriteBadRequest(w, MsgInvalidBody, nil)
		return
	}

	course, err := h.courses.Update(r.Context(), id, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("course updated via api",
		zap.String("by", p.Username()),
		zap.String("id", course.ID.String()))
	_ = utils.WriteOK(w, course)
}

// HandleDelete handles DELETE /api/courses/{id}
func (h *CourseHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	id, err := utils.ValidateUUID(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, MsgInvalidCourseID, nil)
		return
	}

	if err := h.courses.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("course deleted via api",
		zap.String("by", p.Username()),
		zap.String("id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *CourseHandler) requireAdmin(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok || !p.HasRole(auth.RoleAdmin) {
		HandleServiceError(w, services.ErrForbidden, h.logger)
		return nil, false
	}
	return p, true
}

// HandleCoursesPage renders GET /courses, the default landing page
func (h *CourseHandler) HandleCoursesPage(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list courses", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	page := views.Page{Title: "Courses", Data: courses}
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		page.Username = p.Username()
	}
	renderPage(w, h.renderer, views.Courses, page, h.logger)
}

func renderPage(w http.ResponseWriter, renderer *views.Renderer, name string, page views.Page, logger *zap.Logger) {
	if err := renderer.Render(w, http.StatusOK, name, page); err != nil {
		logger.Error("failed to render page", zap.String("page", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
