package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kukiwrite/kukiwrite/internal/database"
	mw "github.com/kukiwrite/kukiwrite/internal/middleware"
	inats "github.com/kukiwrite/kukiwrite/internal/nats"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Auth handlers
	Register      http.HandlerFunc
	Login         http.HandlerFunc
	Refresh       http.HandlerFunc
	Logout        http.HandlerFunc
	Profile       http.HandlerFunc
	UpdateProfile http.HandlerFunc

	// Content tools
	Blog       http.HandlerFunc
	YouTube    http.HandlerFunc
	SEO        http.HandlerFunc
	Rewrite    http.HandlerFunc
	Instagram  http.HandlerFunc
	Brief      http.HandlerFunc
	Translate  http.HandlerFunc
	Grammar    http.HandlerFunc
	Hashtags   http.HandlerFunc
	Sentiment  http.HandlerFunc
	Score      http.HandlerFunc
	Plagiarism http.HandlerFunc
	Languages  http.HandlerFunc

	// Generation history
	ListGenerations  http.HandlerFunc
	GetGeneration    http.HandlerFunc
	UpdateGeneration http.HandlerFunc
	DeleteGeneration http.HandlerFunc

	// Governance
	Usage         http.HandlerFunc
	RateLimit     http.HandlerFunc
	ListAuditLogs http.HandlerFunc

	AIModels      http.HandlerFunc
	CompareModels http.HandlerFunc

	// API keys
	ListAPIKeys  http.HandlerFunc
	CreateAPIKey http.HandlerFunc
	DeleteAPIKey http.HandlerFunc

	// Brand voices
	ListVoices     http.HandlerFunc
	CreateVoice    http.HandlerFunc
	UpdateVoice    http.HandlerFunc
	DeleteVoice    http.HandlerFunc
	VoiceOwnership func(http.Handler) http.Handler

	// Teams
	ListTeams        http.HandlerFunc
	CreateTeam       http.HandlerFunc
	InviteTeamMember http.HandlerFunc

	// Affiliate
	Referral http.HandlerFunc

	// Templates
	ListTemplates  http.HandlerFunc
	CreateTemplate http.HandlerFunc

	// Billing
	Checkout http.HandlerFunc
	Portal   http.HandlerFunc
	Webhook  http.HandlerFunc

	// Auth middleware
	AuthMiddleware     func(http.Handler) http.Handler
	OptionalMiddleware func(http.Handler) http.Handler
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	AuthRateLimiter    func(http.Handler) http.Handler
}

func NewRouter(pool *pgxpool.Pool, natsClient *inats.Client, cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(chimw.Recoverer)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	readinessHandler := func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{
			"status":   "healthy",
			"database": "healthy",
			"nats":     "healthy",
		}

		status := http.StatusOK

		if pool == nil {
			health["database"] = "not configured"
		} else if err := database.HealthCheck(r.Context(), pool); err != nil {
			health["database"] = "unhealthy"
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

		JSON(w, status, health)
	}

	r.Get("/health/ready", readinessHandler)
	r.Get("/health", readinessHandler)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if cfg.AuthRateLimiter != nil {
				r.Use(cfg.AuthRateLimiter)
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(h.AuthMiddleware)
				r.Post("/logout", h.Logout)
			})
		})

		// Public routes
		r.Get("/ai/models", h.AIModels)
		r.Post("/billing/webhook", h.Webhook)
		r.With(h.OptionalMiddleware).Get("/templates", h.ListTemplates)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Route("/user", func(r chi.Router) {
				r.Get("/profile", h.Profile)
				r.Patch("/profile", h.UpdateProfile)
				r.Get("/usage", h.Usage)
			})
			r.Get("/rate-limit", h.RateLimit)
			r.Get("/audit", h.ListAuditLogs)
			r.Post("/ai/compare", h.CompareModels)

			r.Route("/tools", func(r chi.Router) {
				r.Post("/blog", h.Blog)
				r.Post("/youtube", h.YouTube)
				r.Post("/seo", h.SEO)
				r.Post("/rewriter", h.Rewrite)
				r.Post("/instagram", h.Instagram)
				r.Post("/brief", h.Brief)
				r.Post("/translate", h.Translate)
				r.Get("/languages", h.Languages)
				r.Post("/grammar-check", h.Grammar)
				r.Post("/hashtags", h.Hashtags)
				r.Post("/sentiment", h.Sentiment)
				r.Post("/score", h.Score)
				r.Post("/plagiarism", h.Plagiarism)
			})

			r.Route("/generations", func(r chi.Router) {
				r.Get("/", h.ListGenerations)
				r.Get("/{generationID}", h.GetGeneration)
				r.Patch("/{generationID}", h.UpdateGeneration)
				r.Delete("/{generationID}", h.DeleteGeneration)
			})

			r.Route("/api-keys", func(r chi.Router) {
				r.Get("/", h.ListAPIKeys)
				r.Post("/", h.CreateAPIKey)
				r.Delete("/{keyID}", h.DeleteAPIKey)
			})

			r.Route("/brand-voices", func(r chi.Router) {
				r.Get("/", h.ListVoices)
				r.Post("/", h.CreateVoice)

				r.Route("/{voiceID}", func(r chi.Router) {
					r.Use(h.VoiceOwnership)
					r.Patch("/", h.UpdateVoice)
					r.Delete("/", h.DeleteVoice)
				})
			})

			r.Route("/teams", func(r chi.Router) {
				r.Get("/", h.ListTeams)
				r.Post("/", h.CreateTeam)
				r.Post("/{teamID}/invite", h.InviteTeamMember)
			})

			r.Get("/affiliate/referral", h.Referral)

			r.Post("/templates", h.CreateTemplate)

			r.Post("/billing/checkout", h.Checkout)
			r.Post("/billing/portal", h.Portal)
		})
	})

	return r
}
