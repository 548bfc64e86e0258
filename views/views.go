// Package views renders the server-side HTML pages of the browser chain.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var files embed.FS

// Page names
const (
	Login    = "login.html"
	Register = "register.html"
	Courses  = "courses.html"
	Users    = "users.html"
	Profile  = "profile.html"
	Grades   = "grades.html"
	UserForm = "user_form.html"
)

// Page is the data every template receives.
type Page struct {
	Title      string
	Username   string
	Error      bool
	Registered bool
	Message    string
	Data       interface{}
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page together with the shared layout.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{Login, Register, Courses, Users, Profile, Grades, UserForm} {
		t, err := template.New(name).ParseFS(files, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes the named page with status. The page is rendered into a
// buffer first so a template failure never produces a partial response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, page); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
