package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/technosupport/arena-watch/internal/analysis"
	"github.com/technosupport/arena-watch/internal/auth"
	"github.com/technosupport/arena-watch/internal/history"
	"github.com/technosupport/arena-watch/internal/media"
	"github.com/technosupport/arena-watch/internal/middleware"
	"github.com/technosupport/arena-watch/internal/ratelimit"
	"github.com/technosupport/arena-watch/internal/settings"
	"github.com/technosupport/arena-watch/internal/stream"
)

const (
	DefaultRequestTimeout = 30 * time.Second
	maxFilesPerRequest    = 10
)

// Handler serves the dashboard API over the stream, uploads, history and
// settings services.
type Handler struct {
	Stream   *stream.Stream
	Uploads  *analysis.Service
	History  history.Store
	Settings *settings.Service
}

type RouterConfig struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	MaxUploadBytes int64

	// Auth guards settings mutations. Nil locks them.
	Auth *middleware.JWTAuth
	// Login enables POST /auth/token; Revocations enables POST /auth/revoke
	Login       *auth.Authenticator
	Revocations auth.Revocations

	// Limiter is shared by the upload and login limits. Nil disables both.
	Limiter         middleware.RateLimiter
	UploadRateLimit ratelimit.LimitConfig
	LoginRateLimit  ratelimit.LimitConfig
}

func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = media.DefaultMaxSize
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	// long-lived, so outside the request timeout
	r.Get("/api/v1/events/ws", h.ServeEvents)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

		r.Get("/dashboard", h.Dashboard)
		r.Get("/cameras", h.Cameras)
		r.Get("/alerts/current", h.CurrentAlert)
		r.Get("/analyses", h.Analyses)

		r.Get("/notifications", h.Notifications)
		r.Delete("/notifications/{id}", h.DismissNotification)
		r.Get("/incidents", h.Incidents)
		r.Delete("/incidents/{id}", h.DismissIncident)

		r.Route("/uploads", func(r chi.Router) {
			r.With(middleware.RateLimit(cfg.Limiter, "upload", cfg.UploadRateLimit)).
				Post("/", h.createUploads(cfg.MaxUploadBytes))
			r.Get("/", h.ListUploads)
			r.Get("/{id}", h.GetUpload)
			r.Delete("/{id}", h.RemoveUpload)
		})

		r.Get("/history", h.ListHistory)
		r.Get("/history/export", h.ExportHistory)

		if cfg.Login.Enabled() {
			r.With(middleware.RateLimit(cfg.Limiter, "login", cfg.LoginRateLimit)).
				Post("/auth/token", h.login(cfg.Login))
		}

		r.Get("/settings", h.GetSettings)
		r.Group(func(r chi.Router) {
			if cfg.Auth != nil {
				r.Use(cfg.Auth.Middleware)
			} else {
				r.Use(locked)
			}
			r.Put("/settings", h.UpdateSettings)
			r.Post("/settings/reset", h.ResetSettings)
			if cfg.Revocations != nil {
				r.Post("/auth/revoke", h.revoke(cfg.Revocations))
			}
		})
	})

	return r
}

func locked(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "settings are read-only")
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"stream_running": h.Stream.Running(),
	})
}
