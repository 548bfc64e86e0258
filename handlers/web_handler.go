package handlers

import (
	"context"
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

const usersPath = "/admin/users"

// AccountAdmin lists and maintains registered accounts
type AccountAdmin interface {
	List(ctx context.Context) ([]*models.Account, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Account, error)
	Update(ctx context.Context, id uuid.UUID, input services.UpdateAccountInput) (*models.Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// WebHandler serves the remaining browser pages
type WebHandler struct {
	accounts    AccountAdmin
	renderer    *views.Renderer
	landingPath string
	logger      *zap.Logger
}

// NewWebHandler creates a new WebHandler
func NewWebHandler(accounts AccountAdmin, renderer *views.Renderer, landingPath string, logger *zap.Logger) *WebHandler {
	return &WebHandler{
		accounts:    accounts,
		renderer:    renderer,
		landingPath: landingPath,
		logger:      logger,
	}
}

// HandleDashboard redirects GET / to the landing page
func (h *WebHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.landingPath, http.StatusFound)
}

// HandleUsersPage renders GET /admin/users
func (h *WebHandler) HandleUsersPage(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list accounts", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	page := views.Page{Title: "Users", Data: accounts}
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		page.Username = p.Username()
	}
	renderPage(w, h.renderer, views.Users, page, h.logger)
}

// HandleUserEditPage renders GET /admin/users/edit/{id}
func (h *WebHandler) HandleUserEditPage(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		h.adminError(w, r, err)
		return
	}

	page := views.Page{
		Title: "Edit " + account.Username,
		Error: r.URL.Query().Has("error"),
		Data:  account,
	}
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		page.Username = p.Username()
	}
	renderPage(w, h.renderer, views.UserForm, page, h.logger)
}

// HandleUserUpdate processes POST /admin/users/edit/{id}
func (h *WebHandler) HandleUserUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	input := services.UpdateAccountInput{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
	}
	account, err := h.accounts.Update(r.Context(), id, input)
	if err != nil {
		if services.IsValidationError(err) || services.IsConflictError(err) {
			http.Redirect(w, r, usersPath+"/edit/"+id.String()+"?error", http.StatusFound)
			return
		}
		h.adminError(w, r, err)
		return
	}

	h.logger.Info("account edited by administrator",
		zap.String("by", principalName(r)),
		zap.String("id", account.ID.String()))
	http.Redirect(w, r, usersPath, http.StatusFound)
}

// HandleUserDelete processes POST /admin/users/delete/{id}
func (h *WebHandler) HandleUserDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	if err := h.accounts.Delete(r.Context(), id); err != nil {
		h.adminError(w, r, err)
		return
	}

	h.logger.Info("account deleted by administrator",
		zap.String("by", principalName(r)),
		zap.String("id", id.String()))
	http.Redirect(w, r, usersPath, http.StatusFound)
}

func (h *WebHandler) adminError(w http.ResponseWriter, r *http.Request, err error) {
	if services.IsNotFoundError(err) {
		http.NotFound(w, r)
		return
	}
	h.logger.Error("account administration failed", zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func accountID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := utils.ValidateUUID(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return uuid.Nil, false
	}
	return id, true
}

func principalName(r *http.Request) string {
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		return p.Username()
	}
	return ""
}

// HandleProfilePage renders GET /user/profile from the session principal
func (h *WebHandler) HandleProfilePage(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	renderPage(w, h.renderer, views.Profile, views.Page{
		Title:    "Profile",
		Username: p.Username(),
		Data:     p,
	}, h.logger)
}
