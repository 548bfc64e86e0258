package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/upb/gradebook/internal/auth"
	"github.com/upb/gradebook/models"
	"github.com/upb/gradebook/services"
	"github.com/upb/gradebook/utils"
	"github.com/upb/gradebook/views"
	"go.uber.org/zap"
)

// Authenticator checks a username/password pair
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) auth.AuthOutcome
}

// Registrar creates new accounts
type Registrar interface {
	Register(ctx context.Context, input services.RegisterInput) (*models.Account, error)
}

// Handler serves form login, logout and registration for the browser chain.
type Handler struct {
	sessions      *Manager
	authenticator Authenticator
	registrar     Registrar
	renderer      *views.Renderer
	landingPath   string
	logger        *zap.Logger
}

// NewHandler creates a new browser auth handler
func NewHandler(sessions *Manager, authenticator Authenticator, registrar Registrar, renderer *views.Renderer, landingPath string, logger *zap.Logger) *Handler {
	return &Handler{
		sessions:      sessions,
		authenticator: authenticator,
		registrar:     registrar,
		renderer:      renderer,
		landingPath:   landingPath,
		logger:        logger,
	}
}

// HandleLoginPage renders GET /login
func (h *Handler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	h.render(w, views.Login, views.Page{
		Title:      "Log in",
		Error:      query.Has("error"),
		Registered: query.Has("registered"),
	})
}

// HandleLogin processes POST /login. Success establishes a session and
// lands on the configured page; any failure goes back to /login?error.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/login?error", http.StatusFound)
		return
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		http.Redirect(w, r, "/login?error", http.StatusFound)
		return
	}

	outcome := h.authenticator.Authenticate(r.Context(), username, password)
	if !outcome.OK() {
		if outcome.Failure == auth.FailureStoreUnavailable {
			h.logger.Error("form login failed: account store unavailable",
				zap.String("username", username),
				zap.Error(outcome.Err))
		} else {
			h.logger.Info("form login rejected", zap.String("username", username))
		}
		http.Redirect(w, r, "/login?error", http.StatusFound)
		return
	}

	if err := h.sessions.Establish(w, r, outcome.Principal); err != nil {
		h.logger.Error("failed to establish session",
			zap.String("username", username),
			zap.Error(err))
		http.Redirect(w, r, "/login?error", http.StatusFound)
		return
	}

	h.logger.Info("form login succeeded", zap.String("username", username))
	http.Redirect(w, r, h.landingPath, http.StatusFound)
}

// HandleLogout processes POST /logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Invalidate(w, r); err != nil {
		h.logger.Warn("failed to invalidate session", zap.Error(err))
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// HandleRegisterPage renders GET /register
func (h *Handler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	page := views.Page{Title: "Register", Error: r.URL.Query().Has("error")}
	if flashes := h.sessions.Flashes(w, r); len(flashes) > 0 {
		page.Message = flashes[0]
	}
	h.render(w, views.Register, page)
}

// HandleRegister processes POST /register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/register?error", http.StatusFound)
		return
	}

	input := services.RegisterInput{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
		Email:    r.PostForm.Get("email"),
	}

	if _, err := h.registrar.Register(r.Context(), input); err != nil {
		msg := "Registration failed."
		switch {
		case services.IsConflictError(err):
			msg = "That username is already taken."
		case services.IsValidationError(err):
			msg = "Usernames need at least 3 letters or digits and passwords at least 6 characters."
			var fieldErr *utils.ValidationError
			if errors.As(err, &fieldErr) && fieldErr.MissingRequired() {
				msg = "Username and password are required."
			}
		default:
			h.logger.Error("registration failed", zap.Error(err))
		}
		h.sessions.AddFlash(w, r, msg)
		http.Redirect(w, r, "/register?error", http.StatusFound)
		return
	}

	http.Redirect(w, r, "/login?registered", http.StatusFound)
}

func (h *Handler) render(w http.ResponseWriter, name string, page views.Page) {
	if err := h.renderer.Render(w, http.StatusOK, name, page); err != nil {
		h.logger.Error("failed to render page", zap.String("page", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
