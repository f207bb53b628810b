// Package server assembles the HTTP surface: REST API, realtime websocket,
// metrics, and the static page shell.
package server

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cuetube/cuetube/internal/auth"
	"github.com/cuetube/cuetube/internal/database"
	"github.com/cuetube/cuetube/internal/geoip"
	"github.com/cuetube/cuetube/internal/httputil"
	"github.com/cuetube/cuetube/internal/metrics"
	"github.com/cuetube/cuetube/internal/ratelimit"
	"github.com/cuetube/cuetube/internal/realtime"
	"github.com/cuetube/cuetube/internal/validate"
	"github.com/cuetube/cuetube/internal/videos"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	DB        database.DBTX
	Pinger    Pinger
	Saver     realtime.SaverFactory
	Geo       *geoip.Resolver
	Metrics   *metrics.Metrics
	WebFS     fs.FS
	JWTSecret string
	BaseURL   string
}

type Server struct {
	router          chi.Router
	pinger          Pinger
	metrics         *metrics.Metrics
	authHandler     *auth.Handler
	videosHandler   *videos.Handler
	realtimeHandler *realtime.Handler
	webFS           fs.FS
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{BaseURL: cfg.BaseURL}))
	if cfg.Metrics != nil {
		r.Use(metrics.RequestMiddleware(cfg.Metrics))
	}

	s := &Server{router: r, pinger: cfg.Pinger, metrics: cfg.Metrics, webFS: cfg.WebFS}

	if cfg.DB != nil {
		if cfg.JWTSecret == "" {
			log.Fatal("JWT_SECRET is required; set the environment variable")
		}

		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:8080"
		}

		secureCookies := strings.HasPrefix(baseURL, "https://")
		s.authHandler = auth.NewHandler(cfg.DB, cfg.JWTSecret, secureCookies)
		if cfg.Geo != nil {
			s.authHandler.SetGeoResolver(cfg.Geo)
		}
		s.videosHandler = videos.NewHandler(cfg.DB)
		if cfg.Saver != nil {
			s.realtimeHandler = realtime.NewHandler(cfg.Saver)
		}
	}

	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Realtime exposes the websocket handler so main can disconnect clients
// during shutdown.
func (s *Server) Realtime() *realtime.Handler {
	return s.realtimeHandler
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/limits", s.handleLimits)

	if s.authHandler != nil {
		authLimiter := ratelimit.NewLimiter(0.5, 5)
		s.router.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/api/signup", s.authHandler.Signup)
			r.Post("/api/login", s.authHandler.Login)
			r.Post("/api/refresh", s.authHandler.Refresh)
			r.Post("/api/logout", s.authHandler.Logout)
		})
	}

	if s.videosHandler != nil {
		s.router.Route("/api/videos", func(r chi.Router) {
			r.Use(s.authHandler.Middleware)
			r.Get("/", s.videosHandler.List)
			r.Post("/", s.instrumentSave(s.videosHandler.Save))
			r.Delete("/{videoId}", s.videosHandler.Delete)
		})
	}

	if s.realtimeHandler != nil {
		s.router.With(s.authHandler.Middleware).Get("/api/ws", s.realtimeHandler.ServeWS)
	}

	if s.metrics != nil {
		s.router.Get("/metrics", s.metrics.Handler(func() {
			if s.realtimeHandler != nil {
				s.metrics.SetActiveSessions(s.realtimeHandler.ActiveSessions())
			}
		}).ServeHTTP)
	}

	if s.webFS != nil {
		shell := newShellServer(s.webFS)
		s.router.NotFound(shell.ServeHTTP)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			httputil.WriteError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLimits publishes the field length limits so the shell can validate
// before submitting.
func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, validate.FieldLimits())
}

// instrumentSave counts successful hotcue set saves.
func (s *Server) instrumentSave(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next(rec, r)
		if s.metrics != nil && rec.statusCode < 400 {
			s.metrics.IncVideoSaves()
		}
	}
}
