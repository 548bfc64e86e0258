package views

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	t.Run("login with error notice", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, r.Render(w, http.StatusOK, Login, Page{Title: "Log in", Error: true}))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "Invalid username or password.")
		assert.Contains(t, w.Body.String(), `action="/login"`)
	})

	t.Run("escapes user content", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, r.Render(w, http.StatusBadRequest, Register, Page{
			Title:   "Register",
			Error:   true,
			Message: "<script>alert(1)</script>",
		}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotContains(t, w.Body.String(), "<script>")
	})

	t.Run("grades page", func(t *testing.T) {
		type course struct {
			ID      string
			Code    string
			Credits int
		}
		type grade struct {
			ID        string
			Value     float64
			CreatedAt time.Time
		}
		data := struct {
			Course  course
			Grades  []grade
			Average float64
		}{
			Course:  course{ID: "c-1", Code: "CS101", Credits: 4},
			Grades:  []grade{{ID: "g-1", Value: 4.5, CreatedAt: time.Now()}, {ID: "g-2", Value: 3, CreatedAt: time.Now()}},
			Average: 3.75,
		}

		w := httptest.NewRecorder()
		require.NoError(t, r.Render(w, http.StatusOK, Grades, Page{Title: "Intro grades", Username: "alice", Data: data}))

		body := w.Body.String()
		assert.Contains(t, body, "3.75")
		assert.Contains(t, body, "4.5")
		assert.Contains(t, body, `action="/courses/c-1/grades/delete/g-2"`)
		assert.Contains(t, body, `action="/courses/c-1/grades/add"`)
	})

	t.Run("account edit form", func(t *testing.T) {
		data := struct {
			ID       string
			Username string
			Email    string
		}{ID: "a-1", Username: "alice", Email: "alice@example.com"}

		w := httptest.NewRecorder()
		require.NoError(t, r.Render(w, http.StatusOK, UserForm, Page{Title: "Edit alice", Error: true, Data: data}))

		body := w.Body.String()
		assert.Contains(t, body, `action="/admin/users/edit/a-1"`)
		assert.Contains(t, body, `value="alice@example.com"`)
		assert.Contains(t, body, "already taken")
	})

	t.Run("unknown page", func(t *testing.T) {
		err := r.Render(httptest.NewRecorder(), http.StatusOK, "missing.html", Page{})
		assert.Error(t, err)
	})
}
