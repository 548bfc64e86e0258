package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/gradebook/internal/auth"
	"github.com/upb/gradebook/models"
	"github.com/upb/gradebook/services"
	"github.com/upb/gradebook/utils"
	"github.com/upb/gradebook/views"
	"go.uber.org/zap"
)

// MsgInvalidGradeID is returned when a grade path parameter is not a UUID
const MsgInvalidGradeID = "Invalid grade id"

// GradeService records the calling student's grades
type GradeService interface {
	List(ctx context.Context, courseID uuid.UUID, username string) ([]*models.Grade, error)
	Average(ctx context.Context, courseID uuid.UUID, username string) (float64, error)
	Add(ctx context.Context, courseID uuid.UUID, username string, input services.AddGradeInput) (*models.Grade, error)
	Delete(ctx context.Context, courseID, gradeID uuid.UUID, username string) error
}

// CourseAverage is the body of GET /api/courses/{id}/grades/gpa
type CourseAverage struct {
	CourseID uuid.UUID `json:"course_id"`
	GPA      float64   `json:"gpa"`
}

// GradesPage is the data behind the per-course grades page
type GradesPage struct {
	Course  *models.Course
	Grades  []*models.Grade
	Average float64
}

// GradeHandler serves a student's own grades on both chains
type GradeHandler struct {
	grades   GradeService
	courses  CourseService
	renderer *views.Renderer
	logger   *zap.Logger
}

// NewGradeHandler creates a new GradeHandler
func NewGradeHandler(grades GradeService, courses CourseService, renderer *views.Renderer, logger *zap.Logger) *GradeHandler {
	return &GradeHandler{
		grades:   grades,
		courses:  courses,
		renderer: renderer,
		logger:   logger,
	}
}

// HandleList handles GET /api/courses/{id}/grades
func (h *GradeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, courseID, ok := h.apiScope(w, r)
	if !ok {
		return
	}

	grades, err := h.grades.List(r.Context(), courseID, p.Username())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, grades)
}

// HandleAdd handles POST /api/courses/{id}/grades
func (h *GradeHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	p, courseID, ok := h.apiScope(w, r)
	if !ok {
		return
	}

	var input services.AddGradeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		_ = utils.WriteBadRequest(w, MsgInvalidBody, nil)
		return
	}

	grade, err := h.grades.Add(r.Context(), courseID, p.Username(), input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, grade)
}

// HandleDelete handles DELETE /api/courses/{id}/grades/{gradeId}
func (h *GradeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, courseID, ok := h.apiScope(w, r)
	if !ok {
		return
	}

	gradeID, err := utils.ValidateUUID(chi.URLParam(r, "gradeId"))
	if err != nil {
		_ = utils.WriteBadRequest(w, MsgInvalidGradeID, nil)
		return
	}

	if err := h.grades.Delete(r.Context(), courseID, gradeID, p.Username()); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAverage handles GET /api/courses/{id}/grades/gpa
func (h *GradeHandler) HandleAverage(w http.ResponseWriter, r *http.Request) {
	p, courseID, ok := h.apiScope(w, r)
	if !ok {
		return
	}

	avg, err := h.grades.Average(r.Context(), courseID, p.Username())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, CourseAverage{CourseID: courseID, GPA: avg})
}

// HandleGradesPage renders GET /courses/{id}/grades
func (h *GradeHandler) HandleGradesPage(w http.ResponseWriter, r *http.Request) {
	p, courseID, ok := h.pageScope(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	course, err := h.courses.Get(ctx, courseID)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	grades, err := h.grades.List(ctx, courseID, p.Username())
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	renderPage(w, h.renderer, views.Grades, views.Page{
		Title:    course.Name + " grades",
		Username: p.Username(),
		Error:    r.URL.Query().Has("error"),
		Data:     GradesPage{Course: course, Grades: grades, Average: models.Average(grades)},
	}, h.logger)
}

// HandleAddForm handles POST /courses/{id}/grades/add
func (h *GradeHandler) HandleAddForm(w http.ResponseWriter, r *http.Request) {
	p, courseID, ok := h.pageScope(w, r)
	if !ok {
		return
	}
	back := gradesPath(courseID)

	var input services.AddGradeInput
	if raw := r.PostFormValue("grade"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Redirect(w, r, back+"?error", http.StatusFound)
			return
		}
		input.Value = &value
	}

	if _, err := h.grades.Add(r.Context(), courseID, p.Username(), input); err != nil {
		if services.IsValidationError(err) {
			http.Redirect(w, r, back+"?error", http.StatusFound)
			return
		}
		h.pageError(w, r, err)
		return
	}
	http.Redirect(w, r, back, http.StatusFound)
}

// HandleDeleteForm handles POST /courses/{id}/grades/delete/{gradeId}.
// Another student's grade is left in place and the page is shown again.
func (h *GradeHandler) HandleDeleteForm(w http.ResponseWriter, r *http.Request) {
	p, courseID, ok := h.pageScope(w, r)
	if !ok {
		return
	}

	gradeID, err := utils.ValidateUUID(chi.URLParam(r, "gradeId"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	err = h.grades.Delete(r.Context(), courseID, gradeID, p.Username())
	if err != nil && !services.IsForbiddenError(err) {
		h.pageError(w, r, err)
		return
	}
	http.Redirect(w, r, gradesPath(courseID), http.StatusFound)
}

// apiScope extracts the caller and the course id for the API endpoints.
func (h *GradeHandler) apiScope(w http.ResponseWriter, r *http.Request) (*auth.Principal, uuid.UUID, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		HandleServiceError(w, services.ErrUnauthorized, h.logger)
		return nil, uuid.Nil, false
	}
	courseID, err := utils.ValidateUUID(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, MsgInvalidCourseID, nil)
		return nil, uuid.Nil, false
	}
	return p, courseID, true
}

// pageScope is apiScope for the browser pages.
func (h *GradeHandler) pageScope(w http.ResponseWriter, r *http.Request) (*auth.Principal, uuid.UUID, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return nil, uuid.Nil, false
	}
	courseID, err := utils.ValidateUUID(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return nil, uuid.Nil, false
	}
	return p, courseID, true
}

func (h *GradeHandler) pageError(w http.ResponseWriter, r *http.Request, err error) {
	if services.IsNotFoundError(err) {
		http.NotFound(w, r)
		return
	}
	h.logger.Error("grades page failed", zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func gradesPath(courseID uuid.UUID) string {
	return "/courses/" + courseID.String() + "/grades"
}
