package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/mindmate-app/mindmate/internal/auth"
	"github.com/mindmate-app/mindmate/internal/config"
	"github.com/mindmate-app/mindmate/internal/models"
	"github.com/mindmate-app/mindmate/internal/revocation"
	"github.com/mindmate-app/mindmate/internal/storage"
)

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	repo           storage.Repository
	issuer         *auth.Issuer
	revoked        revocation.Store
	authMiddleware *AuthMiddleware
	authLimiter    *RateLimiter
	upgrader       websocket.Upgrader
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	repo storage.Repository,
	issuer *auth.Issuer,
	revoked revocation.Store,
) *Server {
	s := &Server{
		config:         cfg,
		repo:           repo,
		issuer:         issuer,
		revoked:        revoked,
		authMiddleware: NewAuthMiddleware(repo, issuer, revoked),
		authLimiter:    NewRateLimiter(cfg.AuthRatePerMin),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// AuthLimiter exposes the login/register limiter so idle entries can be purged
func (s *Server) AuthLimiter() *RateLimiter {
	return s.authLimiter
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		// Websocket upgrades must not sit behind the request timeout
		r.With(s.authMiddleware.AuthenticateQuery).Get("/chat/ws", s.handleChatWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Route("/auth", func(r chi.Router) {
				r.With(s.authLimiter.Middleware).Post("/register", s.handleRegister)
				r.With(s.authLimiter.Middleware).Post("/login", s.handleLogin)

				r.Group(func(r chi.Router) {
					r.Use(s.authMiddleware.Authenticate)
					r.Get("/me", s.handleMe)
					r.Post("/logout", s.handleLogout)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware.Authenticate)

				r.Route("/quizzes", func(r chi.Router) {
					r.Get("/", s.handleListQuizzes)
					r.With(s.authMiddleware.RequireRoles(models.RoleCounsellor)).Post("/", s.handleCreateQuiz)
					r.Get("/{id}", s.handleGetQuiz)
				})

				r.With(s.authMiddleware.RequireRoles(models.RoleStudent)).Get("/users/counsellors", s.handleListCounsellors)
			})
		})
	})

	s.router = r
}

// checkOrigin applies the CORS allow-list to websocket upgrades
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.config.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
