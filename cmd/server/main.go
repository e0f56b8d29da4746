package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/courseloop/academy-server-go/internal/config"
	"github.com/courseloop/academy-server-go/internal/database"
	"github.com/courseloop/academy-server-go/internal/handler"
	"github.com/courseloop/academy-server-go/internal/jobs"
	"github.com/courseloop/academy-server-go/internal/middleware"
	"github.com/courseloop/academy-server-go/internal/redis"
	"github.com/courseloop/academy-server-go/internal/repository"
	"github.com/courseloop/academy-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("APP_ENV") == "production"
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	if err := db.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	userRepo := repository.NewUserRepository(db.DB)
	courseRepo := repository.NewCourseRepository(db.DB)
	enrollmentRepo := repository.NewEnrollmentRepository(db.DB)
	magicLinkRepo := repository.NewMagicLinkRepository(db.DB)
	progressRepo := repository.NewProgressRepository(db.DB)
	quizRepo := repository.NewQuizRepository(db.DB)
	productMappingRepo := repository.NewProductMappingRepository(db.DB)
	webhookEventRepo := repository.NewWebhookEventRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(db.DB)

	rateLimiter := service.NewRateLimiter(redisClient.Client)

	webhookService := service.NewWebhookService(
		db, userRepo, courseRepo, enrollmentRepo, magicLinkRepo,
		productMappingRepo, webhookEventRepo, cfg,
	)
	authService := service.NewAuthService(
		db, userRepo, magicLinkRepo, sessionRepo, rateLimiter, cfg,
	)
	progressService := service.NewProgressService(courseRepo, enrollmentRepo, progressRepo, quizRepo)
	quizService := service.NewQuizService(quizRepo, enrollmentRepo)

	sessionMiddleware := middleware.NewSessionMiddleware(authService)
	signatureMiddleware := middleware.NewWebhookSignatureMiddleware(cfg.WebhookSecret)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	webhookRateLimit := middleware.NewIPRateLimitMiddleware(
		rateLimiter, config.WebhookRateLimitPerMin, time.Minute, redis.WebhookLimitKey)

	webhookHandler := handler.NewWebhookHandler(webhookService)
	authHandler := handler.NewAuthHandler(authService, cfg.PortalBaseURL, isProduction)
	courseHandler := handler.NewCourseHandler(courseRepo, enrollmentRepo, progressService)
	progressHandler := handler.NewProgressHandler(progressService)
	quizHandler := handler.NewQuizHandler(quizService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Use(webhookRateLimit.Handler)
		r.Use(signatureMiddleware.Handler)
		r.Mount("/", webhookHandler.Routes())
	})

	r.Mount("/auth", authHandler.Routes())

	r.Route("/courses", func(r chi.Router) {
		r.Use(sessionMiddleware.OptionalHandler)
		r.Mount("/", courseHandler.Routes())
	})

	r.Route("/progress", func(r chi.Router) {
		r.Use(sessionMiddleware.Handler)
		r.Mount("/", progressHandler.Routes())
	})

	r.Route("/quizzes", func(r chi.Router) {
		r.Use(sessionMiddleware.Handler)
		r.Mount("/", quizHandler.Routes())
	})

	r.With(sessionMiddleware.Handler).Get("/me", courseHandler.Me)

	cleanupJob := jobs.NewCleanupJob(magicLinkRepo, sessionRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
