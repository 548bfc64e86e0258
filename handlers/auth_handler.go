package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/upb/gradebook/internal/auth"
	"github.com/upb/gradebook/utils"
	"go.uber.org/zap"
)

// Login failure messages returned by POST /api/auth/login.
const (
	MsgInvalidBody        = "Invalid request body"
	MsgMissingFields      = "Invalid request: missing required fields"
	MsgInvalidCredentials = "Invalid username or password"
)

// Authenticator checks a username/password pair
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) auth.AuthOutcome
}

// TokenIssuer mints bearer tokens for authenticated principals
type TokenIssuer interface {
	Issue(p *auth.Principal) (string, error)
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token
type LoginResponse struct {
	Token string `json:"token"`
}

// AuthHandler serves the stateless API login
type AuthHandler struct {
	authenticator Authenticator
	tokens        TokenIssuer
	logger        *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authenticator Authenticator, tokens TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		tokens:        tokens,
		logger:        logger,
	}
}

// HandleLogin handles POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if !errors.Is(err, io.EOF) {
			h.logger.Debug("undecodable login body", zap.Error(err))
		}
		h.badRequest(w, MsgInvalidBody)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.badRequest(w, MsgMissingFields)
		return
	}

	outcome := h.authenticator.Authenticate(r.Context(), req.Username, req.Password)
	if !outcome.OK() {
		if outcome.Failure == auth.FailureStoreUnavailable {
			h.logger.Error("api login failed: account store unavailable",
				zap.String("username", req.Username),
				zap.Error(outcome.Err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}
		h.logger.Info("api login rejected", zap.String("username", req.Username))
		h.badRequest(w, MsgInvalidCredentials)
		return
	}

	token, err := h.tokens.Issue(outcome.Principal)
	if err != nil {
		h.logger.Error("failed to issue token",
			zap.String("username", req.Username),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, LoginResponse{Token: token}); err != nil {
		h.logger.Error("failed to write login response", zap.Error(err))
	}
}

func (h *AuthHandler) badRequest(w http.ResponseWriter, msg string) {
	if err := utils.WriteBadRequest(w, msg, nil); err != nil {
		h.logger.Error("failed to write bad request response", zap.Error(err))
	}
}
