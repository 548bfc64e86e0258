// Package session keeps the browser chain's identity in a server-side
// gorilla session and serves the form login, logout and registration pages.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/upb/gradebook/config"
	"github.com/upb/gradebook/internal/auth"
	"go.uber.org/zap"
)

const (
	usernameKey = "username"
	rolesKey    = "roles"
)

// Manager reads and writes the authenticated principal in a session.
type Manager struct {
	store  sessions.Store
	name   string
	logger *zap.Logger
}

// NewManager creates a Manager backed by a filesystem store, so only the
// session id travels in the cookie.
func NewManager(cfg config.SessionConfig, logger *zap.Logger) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("session secret must be at least 32 bytes")
	}

	dir := cfg.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	store := sessions.NewFilesystemStore(dir, []byte(cfg.Secret))
	store.MaxLength(0)
	store.MaxAge(int(cfg.MaxAge.Seconds()))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.Secure
	store.Options.SameSite = http.SameSiteLaxMode

	name := cfg.CookieName
	if name == "" {
		name = "GRADEBOOK_SESSION"
	}

	return NewManagerWithStore(store, name, logger), nil
}

// NewManagerWithStore creates a Manager over an arbitrary gorilla store.
func NewManagerWithStore(store sessions.Store, name string, logger *zap.Logger) *Manager {
	return &Manager{
		store:  store,
		name:   name,
		logger: logger,
	}
}

// Principal returns the principal stored in the request's session.
// An absent, expired or tampered session yields ok=false.
func (m *Manager) Principal(r *http.Request) (*auth.Principal, bool) {
	s, err := m.store.Get(r, m.name)
	if err != nil {
		m.logger.Debug("session not readable", zap.Error(err))
		return nil, false
	}
	if s.IsNew {
		return nil, false
	}

	username, _ := s.Values[usernameKey].(string)
	if username == "" {
		return nil, false
	}

	rolesValue, _ := s.Values[rolesKey].(string)
	var roles []auth.Role
	for _, name := range strings.Split(rolesValue, ",") {
		if name == "" {
			continue
		}
		role, err := auth.ParseRole(name)
		if err != nil {
			m.logger.Warn("ignoring unknown role in session",
				zap.String("username", username),
				zap.String("role", name))
			continue
		}
		roles = append(roles, role)
	}

	return auth.NewPrincipal(username, roles...), true
}

// Establish stores p in a fresh session. Any previous session id is
// abandoned so a pre-login id can never carry an authenticated identity.
func (m *Manager) Establish(w http.ResponseWriter, r *http.Request, p *auth.Principal) error {
	if p == nil || p.Username() == "" {
		return errors.New("cannot establish a session without a principal")
	}

	s, err := m.store.Get(r, m.name)
	if err != nil {
		m.logger.Debug("replacing unreadable session", zap.Error(err))
	}

	s.ID = ""
	s.Values = map[interface{}]interface{}{
		usernameKey: p.Username(),
		rolesKey:    strings.Join(p.RoleNames(), ","),
	}

	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Invalidate deletes the session and expires its cookie.
func (m *Manager) Invalidate(w http.ResponseWriter, r *http.Request) error {
	s, _ := m.store.Get(r, m.name)
	s.Values = map[interface{}]interface{}{}
	s.Options.MaxAge = -1

	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	return nil
}

// AddFlash queues a one-shot message for the next page render.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, msg string) {
	s, _ := m.store.Get(r, m.name)
	s.AddFlash(msg)
	if err := s.Save(r, w); err != nil {
		m.logger.Warn("failed to save flash message", zap.Error(err))
	}
}

// Flashes pops the queued messages.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) []string {
	s, err := m.store.Get(r, m.name)
	if err != nil || s.IsNew {
		return nil
	}

	var out []string
	for _, f := range s.Flashes() {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	if len(out) > 0 {
		if err := s.Save(r, w); err != nil {
			m.logger.Warn("failed to save session after reading flashes", zap.Error(err))
		}
	}
	return out
}

// Load is the browser chain's identity stage: it copies the session
// principal into the request context.
func (m *Manager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.PrincipalFromContext(r.Context()); !ok {
			if p, ok := m.Principal(r); ok {
				r = r.WithContext(auth.WithPrincipal(r.Context(), p))
			}
		}
		next.ServeHTTP(w, r)
	})
}
