package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/league-system/handlers"
	"github.com/Dosada05/league-system/metrics"
	"github.com/Dosada05/league-system/middleware"
	"github.com/Dosada05/league-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Team        *handlers.TeamHandler
	Match       *handlers.MatchHandler
	Leaderboard *handlers.LeaderboardHandler
	Statistics  *handlers.StatisticsHandler
	WebSocket   *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	Logger         *slog.Logger
	// Metrics is optional; /metrics is mounted only when set.
	Metrics *metrics.Metrics
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(requestLogger(logger, opts.Metrics))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.JWTSecret)
	adminOnly := middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin)
	superAdminOnly := middleware.RequireRole(models.RoleSuperAdmin)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
	})

	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics.Handler())
	}

	router.Get("/leaderboard", h.Leaderboard.GetLeaderboard)
	router.Get("/ws/live", h.WebSocket.ServeLive)

	router.Route("/teams", func(r chi.Router) {
		// Публичные маршруты
		r.Get("/", h.Team.ListTeams)
		r.Get("/{teamID}", h.Team.GetTeamByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate, adminOnly)

			r.Post("/", h.Team.CreateTeam)
			r.Put("/{teamID}", h.Team.UpdateTeam)
			r.Delete("/{teamID}", h.Team.DeleteTeam)
			r.Post("/{teamID}/members/{userID}", h.Team.AddMember)
			r.Delete("/{teamID}/members/{userID}", h.Team.RemoveMember)
			r.Post("/{teamID}/logo", h.Team.UploadLogo)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/", h.Match.ListMatches)
		r.Get("/{matchID}", h.Match.GetMatch)

		r.Group(func(r chi.Router) {
			r.Use(authenticate, adminOnly)

			r.Post("/", h.Match.CreateMatch)
			r.Put("/{matchID}", h.Match.UpdateMatch)
			r.Delete("/{matchID}", h.Match.DeleteMatch)
		})
	})

	router.Route("/statistics", func(r chi.Router) {
		r.Get("/", h.Statistics.ListStatistics)
		r.Get("/{userID}", h.Statistics.GetStatistics)

		r.Group(func(r chi.Router) {
			r.Use(authenticate, adminOnly)

			r.Put("/{userID}", h.Statistics.UpsertStatistics)
			r.Delete("/{userID}", h.Statistics.DeleteStatistics)
		})
	})

	router.Route("/users", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/me", h.User.GetMe)
		r.With(adminOnly).Get("/", h.User.ListUsers)

		r.Group(func(r chi.Router) {
			r.Use(superAdminOnly)

			r.Put("/{userID}/role", h.User.UpdateRole)
			r.Delete("/{userID}", h.User.DeleteUser)
		})
	})
}

func requestLogger(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				elapsed := time.Since(start)
				route := ""
				if rctx := chi.RouteContext(r.Context()); rctx != nil {
					route = rctx.RoutePattern()
				}
				m.ObserveRequest(r.Method, route, ww.Status(), elapsed)

				logger.InfoContext(r.Context(), "http request",
					slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("route", route),
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", elapsed),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
