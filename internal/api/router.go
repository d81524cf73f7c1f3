package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/aria-assistant/aria/internal/events"
	mw "github.com/aria-assistant/aria/internal/middleware"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Chat handlers
	ListMessages  http.HandlerFunc
	AppendMessage http.HandlerFunc
	ClearChat     http.HandlerFunc
	CompleteChat  http.HandlerFunc

	// Settings handlers
	GetSettings       http.HandlerFunc
	UpdateSettings    http.HandlerFunc
	SyncAllSettings   http.HandlerFunc
	ReconcileSettings http.HandlerFunc

	// Integration handlers
	ListIntegrations  http.HandlerFunc
	GetIntegration    http.HandlerFunc
	CreateIntegration http.HandlerFunc
	UpdateIntegration http.HandlerFunc
	DeleteIntegration http.HandlerFunc
	ExecuteCommand    http.HandlerFunc
	CurrentOperation  http.HandlerFunc

	// Memory handlers
	ListMemories   http.HandlerFunc
	SearchMemories http.HandlerFunc
	CreateMemory   http.HandlerFunc
	ClearMemories  http.HandlerFunc

	// Speech handlers
	Speak        http.HandlerFunc
	StopSpeaking http.HandlerFunc
	SpeechStatus http.HandlerFunc
	ListVoices   http.HandlerFunc
	SaveVoice    http.HandlerFunc

	// Sync task handlers
	RecentSyncTasks http.HandlerFunc
	GetSyncTask     http.HandlerFunc

	// Auth middleware
	AuthMiddleware func(http.Handler) http.Handler
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	ExecuteRateLimiter func(http.Handler) http.Handler
	SupabaseEnabled    bool
}

func NewRouter(redisClient redis.UniversalClient, natsClient *events.Client, cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness probe: always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Readiness probe: checks Redis, NATS, and cloud sync configuration
	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status": "healthy",
			"redis":  "healthy",
			"nats":   "healthy",
			"cloud":  "configured",
		}

		status := http.StatusOK

		if err := redisClient.Ping(r.Context()).Err(); err != nil {
			health["redis"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}

		if natsClient != nil && !natsClient.Healthy() {
			health["nats"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		} else if natsClient == nil {
			health["nats"] = "not configured"
		}

		// Local-only mode still serves; sync just stays off.
		if !cfg.SupabaseEnabled {
			health["cloud"] = "not configured"
		}

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// API v1: everything below requires a valid access token
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Route("/chat", func(r chi.Router) {
				r.Get("/", h.ListMessages)
				r.Post("/messages", h.AppendMessage)
				r.Delete("/", h.ClearChat)
				r.Post("/complete", h.CompleteChat)
			})

			r.Route("/settings", func(r chi.Router) {
				r.Post("/sync", h.SyncAllSettings)
				r.Post("/reconcile", h.ReconcileSettings)
				r.Get("/{category}", h.GetSettings)
				r.Put("/{category}", h.UpdateSettings)
			})

			r.Route("/integrations", func(r chi.Router) {
				r.Get("/", h.ListIntegrations)
				r.Post("/", h.CreateIntegration)
				r.Get("/current", h.CurrentOperation)

				// Command execution is the abuse surface, so it alone is
				// rate-limited.
				r.Group(func(r chi.Router) {
					if cfg.ExecuteRateLimiter != nil {
						r.Use(cfg.ExecuteRateLimiter)
					}
					r.Post("/execute", h.ExecuteCommand)
				})

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetIntegration)
					r.Put("/", h.UpdateIntegration)
					r.Delete("/", h.DeleteIntegration)
				})
			})

			r.Route("/memories", func(r chi.Router) {
				r.Get("/", h.ListMemories)
				r.Get("/search", h.SearchMemories)
				r.Post("/", h.CreateMemory)
				r.Delete("/", h.ClearMemories)
			})

			r.Route("/speech", func(r chi.Router) {
				r.Post("/speak", h.Speak)
				r.Post("/stop", h.StopSpeaking)
				r.Get("/status", h.SpeechStatus)
				r.Get("/voices", h.ListVoices)
				r.Put("/voice", h.SaveVoice)
			})

			r.Route("/sync/tasks", func(r chi.Router) {
				r.Get("/", h.RecentSyncTasks)
				r.Get("/{id}", h.GetSyncTask)
			})
		})
	})

	return r
}
