package routes

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/gradebook/app"
	"github.com/upb/gradebook/handlers"
	"github.com/upb/gradebook/internal/auth"
	"github.com/upb/gradebook/middleware"
	"github.com/upb/gradebook/session"
	"github.com/upb/gradebook/utils"
	"go.uber.org/zap"
)

// SetupRoutes builds the two security chains and the routers behind them.
// The API chain claims /api/** and is evaluated first; every other path
// belongs to the browser chain.
func SetupRoutes(deps *app.Dependencies) (http.Handler, error) {
	logger := deps.Logger

	policy, err := middleware.NewRouteAuthorizationPolicy(logger,
		apiChain(deps),
		webChain(deps),
	)
	if err != nil {
		return nil, err
	}

	return chi.Chain(
		chimw.RequestID,
		chimw.RealIP,
		middleware.RequestLogger(logger),
		chimw.Recoverer,
	).Handler(policy), nil
}

func apiChain(deps *app.Dependencies) middleware.Chain {
	authHandler := handlers.NewAuthHandler(deps.Credentials, deps.Tokens, deps.Logger)
	courseHandler := handlers.NewCourseHandler(deps.CourseService, deps.Renderer, deps.Logger)
	gradeHandler := handlers.NewGradeHandler(deps.GradeService, deps.CourseService, deps.Renderer, deps.Logger)

	r := chi.NewRouter()
	r.Post("/api/auth/login", authHandler.HandleLogin)
	r.Route("/api/courses", func(r chi.Router) {
		r.Get("/", courseHandler.HandleList)
		r.Post("/", courseHandler.HandleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", courseHandler.HandleGet)
			r.Put("/", courseHandler.HandleUpdate)
			r.Delete("/", courseHandler.HandleDelete)

			r.Get("/grades", gradeHandler.HandleList)
			r.Post("/grades", gradeHandler.HandleAdd)
			r.Get("/grades/gpa", gradeHandler.HandleAverage)
			r.Delete("/grades/{gradeId}", gradeHandler.HandleDelete)
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return middleware.Chain{
		Name:     "api",
		Patterns: []string{"/api/**"},
		Middlewares: []func(http.Handler) http.Handler{
			cors.Handler(cors.Options{
				AllowedOrigins:   deps.Config.Web.CORSAllowedOrigins,
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
				ExposedHeaders:   []string{"X-Request-ID"},
				AllowCredentials: false,
				MaxAge:           300,
			}),
			deps.Gate.Authenticate,
		},
		Rules: []middleware.Rule{
			middleware.Permit("/api/auth/**"),
			middleware.RequireAuthenticated("/api/**"),
		},
		OnUnauthenticated: func(w http.ResponseWriter, r *http.Request) {
			_ = utils.WriteUnauthorized(w, utils.DefaultUnauthorizedReason)
		},
		OnForbidden: func(w http.ResponseWriter, r *http.Request) {
			_ = utils.WriteForbidden(w, "")
		},
		Handler: r,
	}
}

func webChain(deps *app.Dependencies) middleware.Chain {
	cfg := deps.Config
	sessionHandler := session.NewHandler(deps.Sessions, deps.Credentials, deps.AccountService, deps.Renderer, cfg.Web.LandingPath, deps.Logger)
	courseHandler := handlers.NewCourseHandler(deps.CourseService, deps.Renderer, deps.Logger)
	gradeHandler := handlers.NewGradeHandler(deps.GradeService, deps.CourseService, deps.Renderer, deps.Logger)
	webHandler := handlers.NewWebHandler(deps.AccountService, deps.Renderer, cfg.Web.LandingPath, deps.Logger)

	var db *sql.DB
	if deps.DB != nil {
		db = deps.DB.DB
	}
	healthHandler := handlers.NewHealthHandler(db, deps.Logger)

	r := chi.NewRouter()
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	r.Get("/login", sessionHandler.HandleLoginPage)
	r.Post("/login", sessionHandler.HandleLogin)
	r.Post("/logout", sessionHandler.HandleLogout)
	r.Get("/register", sessionHandler.HandleRegisterPage)
	r.Post("/register", sessionHandler.HandleRegister)

	r.Get("/", webHandler.HandleDashboard)
	r.Get("/courses", courseHandler.HandleCoursesPage)
	r.Get("/courses/{id}/grades", gradeHandler.HandleGradesPage)
	r.Post("/courses/{id}/grades/add", gradeHandler.HandleAddForm)
	r.Post("/courses/{id}/grades/delete/{gradeId}", gradeHandler.HandleDeleteForm)

	r.Get("/admin/users", webHandler.HandleUsersPage)
	r.Get("/admin/users/edit/{id}", webHandler.HandleUserEditPage)
	r.Post("/admin/users/edit/{id}", webHandler.HandleUserUpdate)
	r.Post("/admin/users/delete/{id}", webHandler.HandleUserDelete)
	r.Get("/user/profile", webHandler.HandleProfilePage)

	static := http.FileServer(http.Dir(cfg.Web.StaticDir))
	r.Handle("/css/*", static)
	r.Handle("/js/*", static)

	return middleware.Chain{
		Name:        "web",
		Patterns:    []string{"/**"},
		Middlewares: []func(http.Handler) http.Handler{deps.Sessions.Load},
		Rules: []middleware.Rule{
			middleware.Permit("/register", "/register/**", "/login", "/logout",
				"/css/**", "/js/**", "/healthz", "/readyz"),
			middleware.RequireRole(auth.RoleAdmin, "/admin/**"),
			middleware.RequireRole(auth.RoleUser, "/user/**"),
			middleware.RequireAuthenticated("/**"),
		},
		OnUnauthenticated: func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/login", http.StatusFound)
		},
		OnForbidden: func(w http.ResponseWriter, r *http.Request) {
			deps.Logger.Info("access denied",
				zap.String("path", r.URL.Path),
				zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		},
		Handler: r,
	}
}
