package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/auth-service/internal/auth"
	"github.com/BradenHooton/auth-service/internal/background"
	"github.com/BradenHooton/auth-service/internal/config"
	"github.com/BradenHooton/auth-service/internal/database"
	"github.com/BradenHooton/auth-service/internal/handlers"
	"github.com/BradenHooton/auth-service/internal/metrics"
	middlewareCustom "github.com/BradenHooton/auth-service/internal/middleware"
	"github.com/BradenHooton/auth-service/internal/repositories"
	"github.com/BradenHooton/auth-service/internal/routes"
	"github.com/BradenHooton/auth-service/internal/services"
	pkgauth "github.com/BradenHooton/auth-service/pkg/auth"
	pkglogger "github.com/BradenHooton/auth-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = pkglogger.New(cfg.Server.Env, cfg.Server.LogLevel)
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("user_store", cfg.Stores.Users),
		slog.String("banned_token_store", cfg.Stores.BannedTokens),
		slog.String("two_fa_code_store", cfg.Stores.TwoFACodes),
		slog.String("email_backend", cfg.Email.Backend),
	)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// Password hashing pool
	hasherConfig := pkgauth.DefaultHasherConfig()
	hasherConfig.Workers = cfg.Hashing.Workers
	hasherConfig.MemoryKB = uint32(cfg.Hashing.MemoryKB)
	hasherConfig.Time = uint32(cfg.Hashing.Time)
	hasherConfig.Parallelism = uint8(cfg.Hashing.Parallelism)
	hasher, err := pkgauth.NewHasher(hasherConfig)
	if err != nil {
		logger.Error("failed to initialize password hasher", slog.Any("error", err))
		os.Exit(1)
	}
	hasher.SetObserver(collector.ObserveHash)

	healthChecks := map[string]handlers.HealthCheck{}

	// Initialize database
	var db *database.DB
	if cfg.NeedsPostgres() {
		db, err = database.NewConnection(context.Background(), &cfg.Database, logger)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer db.Close()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = database.Migrate(migrateCtx, db.Pool, logger)
		cancel()
		if err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
		healthChecks["postgres"] = db.HealthCheck
		registry.MustRegister(db.Collectors()...)
	}

	// Initialize redis
	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient, err = database.NewRedisClient(&cfg.Redis, logger)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()

		healthChecks["redis"] = func(ctx context.Context) error {
			return database.RedisHealthCheck(ctx, redisClient)
		}
	}

	// Initialize stores. Redis expires its own keys, so only the others are purged.
	purgers := map[string]background.Purger{}

	var userStore services.UserStore
	switch cfg.Stores.Users {
	case config.BackendPostgres:
		userStore = repositories.NewUserRepository(db, hasher)
	default:
		userStore = repositories.NewMemoryUserStore(hasher)
	}

	tokenTTL := cfg.Auth.TokenTTL
	var bannedTokenStore services.BannedTokenStore
	switch cfg.Stores.BannedTokens {
	case config.BackendPostgres:
		repo := repositories.NewTokenRevocationRepository(db, tokenTTL)
		purgers["banned_tokens"] = repo
		bannedTokenStore = repo
	case config.BackendRedis:
		bannedTokenStore = repositories.NewRedisBannedTokenStore(redisClient, tokenTTL)
	default:
		store := repositories.NewMemoryBannedTokenStore(tokenTTL)
		purgers["banned_tokens"] = store
		bannedTokenStore = store
	}

	var twoFACodeStore services.TwoFACodeStore
	switch cfg.Stores.TwoFACodes {
	case config.BackendRedis:
		twoFACodeStore = repositories.NewRedisTwoFACodeStore(redisClient, cfg.Auth.TwoFACodeTTL)
	default:
		store := repositories.NewMemoryTwoFACodeStore(cfg.Auth.TwoFACodeTTL)
		purgers["two_fa_codes"] = store
		twoFACodeStore = store
	}

	// Email delivery
	var emailClient services.EmailClient
	switch cfg.Email.Backend {
	case config.BackendSES:
		emailCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		emailClient, err = services.NewSESEmailClient(emailCtx, cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		cancel()
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
	default:
		emailClient = services.NewLogEmailClient(logger)
	}

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(purgers, collector, logger, cfg.Auth.CleanupInterval)

	// Initialize token manager
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, tokenTTL)

	// Timing delay for failed logins
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	// Initialize services
	auditLogger := pkglogger.NewAuditLogger(logger)
	authService := services.NewAuthService(userStore, bannedTokenStore, twoFACodeStore, emailClient, tokenManager, timingDelay, logger, auditLogger)
	authService.SetMetrics(collector)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, auth.CookieConfig{
		Domain:   cfg.Auth.CookieDomain,
		Secure:   cfg.Auth.CookieSecure,
		SameSite: cfg.Auth.CookieSameSite,
	})
	healthHandler := handlers.NewHealthHandler(healthChecks)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, healthHandler, authService, metrics.Handler(registry))

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
