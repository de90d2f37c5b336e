// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	authyandexfeature "github.com/ChasovDS/konkursant-grants/internal/app/features/authyandex"
	eventsfeature "github.com/ChasovDS/konkursant-grants/internal/app/features/events"
	healthfeature "github.com/ChasovDS/konkursant-grants/internal/app/features/health"
	loginfeature "github.com/ChasovDS/konkursant-grants/internal/app/features/login"
	profilefeature "github.com/ChasovDS/konkursant-grants/internal/app/features/profile"
	projectsfeature "github.com/ChasovDS/konkursant-grants/internal/app/features/projects"
	reviewsfeature "github.com/ChasovDS/konkursant-grants/internal/app/features/reviews"
	"github.com/ChasovDS/konkursant-grants/internal/app/store/audit"
	eventstore "github.com/ChasovDS/konkursant-grants/internal/app/store/events"
	"github.com/ChasovDS/konkursant-grants/internal/app/store/oauthstate"
	projectstore "github.com/ChasovDS/konkursant-grants/internal/app/store/projects"
	reviewstore "github.com/ChasovDS/konkursant-grants/internal/app/store/reviews"
	sessionstore "github.com/ChasovDS/konkursant-grants/internal/app/store/sessions"
	userstore "github.com/ChasovDS/konkursant-grants/internal/app/store/users"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/auditlog"
	"github.com/ChasovDS/konkursant-grants/internal/app/system/auth"
)

// BuildHandler constructs the root HTTP handler.
//
// It wires the session manager, stores, and every feature router under
// the /api/v1 prefix. The session middleware runs globally so
// auth.CurrentUser works in all handlers; route groups add the role
// requirements.
func BuildHandler(cfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := cfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(cfg.SessionKey, cfg.JWTSecret, cfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user data on every request so role changes and disabled
	// accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.Database))

	users := userstore.New(deps.Database)
	projects := projectstore.New(deps.Database)
	events := eventstore.New(deps.Database)
	reviews := reviewstore.New(deps.Database)
	sessions := sessionstore.New(deps.Database)
	states := oauthstate.New(deps.Database)

	auditLogger := auditlog.New(audit.New(deps.Database), logger, auditlog.Config{
		Auth:  cfg.AuditLogAuth,
		Admin: cfg.AuditLogAdmin,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.Client, logger)

	loginHandler := loginfeature.NewHandler(deps.Database, sessionMgr, auditLogger, users, sessions, cfg.DevMode(), logger)
	yandexHandler := authyandexfeature.NewHandler(deps.Database, sessionMgr, auditLogger, users, sessions, states,
		cfg.YandexClientID, cfg.YandexClientSecret, cfg.BaseURL, logger)
	profileHandler := profilefeature.NewHandler(deps.Database, sessionMgr, auditLogger, users, logger)
	projectsHandler := projectsfeature.NewHandler(deps.Database, auditLogger, projects, reviews, logger)
	eventsHandler := eventsfeature.NewHandler(deps.Database, auditLogger, events, projects, users, logger)
	reviewsHandler := reviewsfeature.NewHandler(deps.Database, auditLogger, reviews, projects, logger)

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/health", healthHandler.Serve)

		api.Mount("/auth/yandex", authyandexfeature.Routes(yandexHandler))
		api.Mount("/auth", loginfeature.Routes(loginHandler))
		api.Mount("/users", profilefeature.Routes(profileHandler, sessionMgr))
		api.Mount("/projects", projectsfeature.Routes(projectsHandler, sessionMgr))
		api.Mount("/events", eventsfeature.Routes(eventsHandler, sessionMgr))
		api.Mount("/reviews", reviewsfeature.Routes(reviewsHandler, sessionMgr))

		// Review creation hangs off the projects subtree but belongs to
		// the reviews feature.
		api.Group(func(pr chi.Router) {
			pr.Use(sessionMgr.RequireSignedIn)
			pr.Post("/projects/{project_id}/reviews", reviewsHandler.HandleCreate)
		})
	})

	return r, nil
}
