package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskhive/taskhive/internal/apperrors"
	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/invites"
	"github.com/taskhive/taskhive/internal/tasks"
	"github.com/taskhive/taskhive/internal/teams"
	"github.com/taskhive/taskhive/internal/users"
)

// Services bundles the wired services the router hands to handlers.
type Services struct {
	Users   *users.Service
	Teams   *teams.Service
	Tasks   *tasks.Service
	Invites *invites.Service
	Engine  *authz.Engine
	Loader  authz.UserLoader
}

// NewRouter creates and configures the Chi router with all middleware and routes
func NewRouter(cfg *config.Config, svc *Services, pool *pgxpool.Pool) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(apperrors.RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(auth.Middleware(cfg.JWTSecret))
	r.Use(APIRateLimitMiddleware(cfg.RateLimitRPM))

	// Health check routes (no authentication required)
	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", handleReadyz(pool))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/register", users.HandleRegister(svc.Users, cfg.JWTSecret, cfg.SessionDays))
		r.With(LoginRateLimitMiddleware()).Post("/login", users.HandleLogin(svc.Users, cfg.JWTSecret, cfg.SessionDays))
		r.With(auth.RequireAuth).Get("/me", users.HandleMe(svc.Users))
	})

	r.Route("/api/v1/teams", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(auth.RequireAuth)

		r.Post("/", teams.HandleCreate(svc.Teams, svc.Engine, svc.Loader))
		r.Get("/", teams.HandleList(svc.Teams, svc.Engine, svc.Loader))
		r.Get("/{teamID}", teams.HandleGet(svc.Teams, svc.Engine, svc.Loader))
		r.Put("/{teamID}", teams.HandleUpdate(svc.Teams, svc.Engine, svc.Loader))
		r.Delete("/{teamID}", teams.HandleDelete(svc.Teams, svc.Engine, svc.Loader))

		// Tasks under a team
		r.Post("/{teamID}/tasks", tasks.HandleCreate(svc.Tasks, svc.Teams, svc.Engine, svc.Loader))
		r.Get("/{teamID}/tasks", tasks.HandleListForTeam(svc.Tasks, svc.Teams, svc.Engine, svc.Loader))
		r.Get("/{teamID}/tasks/statistics", tasks.HandleStatistics(svc.Tasks, svc.Teams, svc.Engine, svc.Loader))

		// Invitations under a team
		r.Post("/{teamID}/invites", invites.HandleSend(svc.Invites, svc.Teams, svc.Engine, svc.Loader))
		r.Get("/{teamID}/invites", invites.HandleListForTeam(svc.Invites, svc.Teams, svc.Engine, svc.Loader))
	})

	r.Route("/api/v1/tasks", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(auth.RequireAuth)

		r.Get("/{taskID}", tasks.HandleGet(svc.Tasks, svc.Teams, svc.Engine, svc.Loader))
		r.Put("/{taskID}", tasks.HandleUpdate(svc.Tasks, svc.Teams, svc.Engine, svc.Loader))
		r.Patch("/{taskID}/status", tasks.HandleUpdateStatus(svc.Tasks, svc.Teams, svc.Engine, svc.Loader))
		r.Delete("/{taskID}", tasks.HandleDelete(svc.Tasks, svc.Teams, svc.Engine, svc.Loader))

		r.Post("/{taskID}/assignees", tasks.HandleAssign(svc.Tasks, svc.Teams, svc.Engine, svc.Loader))
		r.Put("/{taskID}/assignees", tasks.HandleReplaceAssignees(svc.Tasks, svc.Teams, svc.Engine, svc.Loader))
		r.Delete("/{taskID}/assignees", tasks.HandleRemoveAssignees(svc.Tasks, svc.Teams, svc.Engine, svc.Loader))
	})

	r.Route("/api/v1/invites", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Accept works for anonymous callers too: they get told to register.
		r.Post("/accept", invites.HandleAccept(svc.Invites))

		r.With(auth.RequireAuth).Get("/pending", invites.HandleListPending(svc.Invites, svc.Loader))
		r.With(auth.RequireAuth).Delete("/{inviteID}", invites.HandleRevoke(svc.Invites))
	})

	r.With(ContentTypeJSON, auth.RequireAuth).Get("/api/v1/my-tasks", tasks.HandleMyTasks(svc.Tasks, svc.Loader))

	return r
}

// handleHealthz returns a simple liveness check
// Always returns 200 OK if the service is running
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleReadyz returns a readiness check that includes database connectivity
// Returns 200 OK if service is ready to accept traffic, 503 if not
func handleReadyz(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			apperrors.WriteServiceUnavailable(w, r, "Database not reachable")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
			"status": "ready",
		})
	}
}
