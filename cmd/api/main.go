package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kukiwrite/kukiwrite/internal/ai"
	"github.com/kukiwrite/kukiwrite/internal/api"
	"github.com/kukiwrite/kukiwrite/internal/apikeys"
	"github.com/kukiwrite/kukiwrite/internal/auth"
	"github.com/kukiwrite/kukiwrite/internal/billing"
	"github.com/kukiwrite/kukiwrite/internal/brandvoices"
	"github.com/kukiwrite/kukiwrite/internal/config"
	"github.com/kukiwrite/kukiwrite/internal/database"
	"github.com/kukiwrite/kukiwrite/internal/generations"
	"github.com/kukiwrite/kukiwrite/internal/governance"
	"github.com/kukiwrite/kukiwrite/internal/governance/audit"
	"github.com/kukiwrite/kukiwrite/internal/governance/quota"
	mw "github.com/kukiwrite/kukiwrite/internal/middleware"
	inats "github.com/kukiwrite/kukiwrite/internal/nats"
	iredis "github.com/kukiwrite/kukiwrite/internal/redis"
	"github.com/kukiwrite/kukiwrite/internal/referrals"
	"github.com/kukiwrite/kukiwrite/internal/server"
	"github.com/kukiwrite/kukiwrite/internal/teams"
	"github.com/kukiwrite/kukiwrite/internal/templates"
	"github.com/kukiwrite/kukiwrite/internal/tools"
	"github.com/kukiwrite/kukiwrite/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Cancelled on SIGINT/SIGTERM; stops the HTTP server and the audit consumer.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	if err := database.RunMigrations(cfg.DB.DSN(), cfg.DB.MigrationsPath); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// NATS is optional; without it audit events are dropped.
	auditRepo := audit.NewRepository(pool)
	var natsClient *inats.Client
	var publisher audit.EventPublisher
	if cfg.NATS.URL != "" {
		natsClient, err = inats.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Error("connecting to nats", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()

		publisher = inats.NewPublisher(natsClient.JetStream())

		auditConsumer := audit.NewConsumer(auditRepo, inats.NewConsumerManager(natsClient.JetStream()))
		go func() {
			if err := auditConsumer.Start(ctx); err != nil {
				slog.Error("audit consumer stopped", "error", err)
			}
		}()
	} else {
		slog.Warn("nats not configured, audit events disabled")
	}
	recorder := audit.NewRecorder(publisher)

	encryptor, err := auth.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		slog.Error("creating encryptor", "error", err)
		os.Exit(1)
	}

	// Auth
	jwtManager := auth.NewJWTManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)
	authSvc := auth.NewService(jwtManager, redisClient)
	userSvc := users.NewService(users.NewRepository(pool))
	referralSvc := referrals.NewService(referrals.NewRepository(pool), cfg.Stripe.FrontendURL)
	authHandler := auth.NewHandler(authSvc, userSvc).WithReferrals(referralSvc)
	referralHandler := referrals.NewHandler(referralSvc)
	teamHandler := teams.NewHandler(teams.NewService(teams.NewRepository(pool), userSvc))

	// Quota
	quotaSvc := quota.NewService(
		quota.NewRepository(pool),
		quota.Limits{Free: cfg.Quota.FreeMonthlyLimit, Pro: cfg.Quota.ProMonthlyLimit},
		quota.NewRateWindow(redisClient),
	)
	governanceHandler := governance.NewHandler(quotaSvc, auditRepo)

	// Generation pipeline
	dispatcher := ai.NewDispatcher(cfg.AI)
	genSvc := generations.NewService(generations.NewRepository(pool))
	voiceSvc := brandvoices.NewService(brandvoices.NewRepository(pool), encryptor)
	toolSvc := tools.NewService(dispatcher, quotaSvc, genSvc, voiceSvc, recorder)

	aiHandler := ai.NewHandler(dispatcher)
	genHandler := generations.NewHandler(genSvc)
	toolHandler := tools.NewHandler(toolSvc)
	voiceHandler := brandvoices.NewHandler(voiceSvc)

	apikeySvc := apikeys.NewService(apikeys.NewRepository(pool), quotaSvc, recorder)
	apikeyHandler := apikeys.NewHandler(apikeySvc)

	templateHandler := templates.NewHandler(templates.NewService(templates.NewRepository(pool)))

	billingSvc := billing.NewService(
		billing.NewRepository(pool),
		billing.NewStripeGateway(cfg.Stripe.SecretKey),
		userSvc,
		recorder,
		cfg.Stripe,
	)
	billingHandler := billing.NewHandler(billingSvc)

	authLimiter := mw.NewRateLimiter(redisClient, "auth", cfg.RateLimit.AuthMaxRequests, cfg.RateLimit.AuthWindowSec)

	// Router
	router := api.NewRouter(pool, natsClient, api.RouterConfig{
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		AuthRateLimiter:    authLimiter.Middleware,
	}, api.HandlerSet{
		Register:      authHandler.Register,
		Login:         authHandler.Login,
		Refresh:       authHandler.Refresh,
		Logout:        authHandler.Logout,
		Profile:       authHandler.Profile,
		UpdateProfile: authHandler.UpdateProfile,

		Blog:       toolHandler.Blog(),
		YouTube:    toolHandler.YouTube(),
		SEO:        toolHandler.SEO(),
		Rewrite:    toolHandler.Rewrite(),
		Instagram:  toolHandler.Instagram(),
		Brief:      toolHandler.Brief(),
		Translate:  toolHandler.Translate(),
		Grammar:    toolHandler.Grammar(),
		Hashtags:   toolHandler.Hashtags(),
		Sentiment:  toolHandler.Sentiment,
		Score:      toolHandler.Score,
		Plagiarism: toolHandler.Plagiarism,
		Languages:  toolHandler.Languages,

		ListGenerations:  genHandler.List,
		GetGeneration:    genHandler.Get,
		UpdateGeneration: genHandler.Update,
		DeleteGeneration: genHandler.Delete,

		Usage:         governanceHandler.Usage,
		RateLimit:     governanceHandler.RateLimit,
		ListAuditLogs: governanceHandler.ListAuditLogs,

		AIModels:      aiHandler.Models,
		CompareModels: toolHandler.Compare(),

		ListAPIKeys:  apikeyHandler.List,
		CreateAPIKey: apikeyHandler.Create,
		DeleteAPIKey: apikeyHandler.Delete,

		ListVoices:     voiceHandler.List,
		CreateVoice:    voiceHandler.Create,
		UpdateVoice:    voiceHandler.Update,
		DeleteVoice:    voiceHandler.Delete,
		VoiceOwnership: voiceHandler.OwnershipMiddleware,

		ListTeams:        teamHandler.List,
		CreateTeam:       teamHandler.Create,
		InviteTeamMember: teamHandler.Invite,

		Referral: referralHandler.Get,

		ListTemplates:  templateHandler.List,
		CreateTemplate: templateHandler.Create,

		Checkout: billingHandler.Checkout,
		Portal:   billingHandler.Portal,
		Webhook:  billingHandler.Webhook,

		AuthMiddleware:     auth.Middleware(authSvc, apikeySvc),
		OptionalMiddleware: auth.OptionalMiddleware(authSvc),
	})

	// Start server
	srv := server.New(cfg.Server, router)
	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
