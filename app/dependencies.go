package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/gradebook/config"
	"github.com/upb/gradebook/internal/auth"
	"github.com/upb/gradebook/middleware"
	"github.com/upb/gradebook/repositories"
	"github.com/upb/gradebook/repositories/postgres"
	"github.com/upb/gradebook/services"
	"github.com/upb/gradebook/session"
	"github.com/upb/gradebook/views"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Accounts  repositories.AccountRepository
	Courses   repositories.CourseRepository
	Grades    repositories.GradeRepository
	TxManager repositories.TransactionManager

	// Security
	Tokens      *auth.TokenService
	Credentials *auth.CredentialVerifier
	Sessions    *session.Manager
	Gate        *middleware.AuthenticationGate

	// Services
	AccountService *services.AccountService
	CourseService  *services.CourseService
	GradeService   *services.GradeService

	Renderer *views.Renderer
}

// NewDependencies connects to the database and wires every component on top of it.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.Database.InitSchema {
		if err := factory.InitSchema(ctx); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		logger.Info("database schema initialized")
	}

	deps, err := NewDependenciesFromRepositories(cfg, logger, factory.NewRepositories(), factory.GetTransactionManager())
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	deps.RepoFactory = factory
	deps.DB = factory.GetDB()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewDependenciesFromRepositories wires the security, service and view
// layers over the given repositories. No database connection is opened.
func NewDependenciesFromRepositories(cfg *config.Config, logger *zap.Logger, repos *repositories.Repositories, tx repositories.TransactionManager) (*Dependencies, error) {
	d := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		Accounts:  repos.Accounts,
		Courses:   repos.Courses,
		Grades:    repos.Grades,
		TxManager: tx,
	}

	if err := d.initAuth(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	d.AccountService = services.NewAccountService(d.Accounts, d.TxManager, d.Credentials, logger)
	d.CourseService = services.NewCourseService(d.Courses, logger)
	d.GradeService = services.NewGradeService(d.Grades, d.Courses, d.Accounts, d.TxManager, logger)

	renderer, err := views.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	d.Renderer = renderer

	return d, nil
}

func (d *Dependencies) initAuth(cfg *config.Config) error {
	tokens, err := auth.NewTokenService([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, auth.SystemClock{})
	if err != nil {
		return err
	}
	d.Tokens = tokens
	d.Logger.Info("token service ready", zap.Duration("token_ttl", tokens.TTL()))

	credentials, err := auth.NewCredentialVerifier(&accountStoreAdapter{accounts: d.Accounts}, cfg.Auth.BcryptCost, d.Logger)
	if err != nil {
		return err
	}
	d.Credentials = credentials

	sessions, err := session.NewManager(cfg.Session, d.Logger)
	if err != nil {
		return err
	}
	d.Sessions = sessions

	d.Gate = middleware.NewAuthenticationGate(tokens, credentials, d.Logger)
	return nil
}

// accountStoreAdapter exposes the account repository as the credential
// store the verifier reads from.
type accountStoreAdapter struct {
	accounts repositories.AccountRepository
}

func (a *accountStoreAdapter) FindByUsername(ctx context.Context, username string) (*auth.Credential, error) {
	account, err := a.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, auth.ErrAccountNotFound
		}
		return nil, err
	}

	cred := &auth.Credential{
		Username:     account.Username,
		HashedSecret: account.PasswordHash,
	}
	if role, err := auth.ParseRole(string(account.Role)); err == nil {
		cred.Roles = []auth.Role{role}
	}
	return cred, nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
