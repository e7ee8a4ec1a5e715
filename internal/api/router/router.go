package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/campus-triage-bot/internal/http/middleware"
	"github.com/wolfman30/campus-triage-bot/internal/webchat"
	"github.com/wolfman30/campus-triage-bot/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Webchat            *webchat.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// RateLimiter throttles the chat and booking endpoints when set.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Operational endpoints
	r.Group(func(public chi.Router) {
		public.Use(middleware.Compress(5))
		public.Get("/health", cfg.Webchat.Health)
		public.Get("/stats", cfg.Webchat.Stats)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Chat API
	r.Group(func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		api.With(middleware.AllowContentType("application/json")).Post("/chatbot", cfg.Webchat.Chat)
		api.With(middleware.AllowContentType("application/json")).Post("/book_appointment", cfg.Webchat.Book)
		api.Get("/ws", cfg.Webchat.HandleWebSocket)
	})

	return r
}
