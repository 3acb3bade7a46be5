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

	"github.com/pagepilot/action-server-go/internal/automation"
	"github.com/pagepilot/action-server-go/internal/config"
	"github.com/pagepilot/action-server-go/internal/database"
	"github.com/pagepilot/action-server-go/internal/handler"
	"github.com/pagepilot/action-server-go/internal/jobs"
	"github.com/pagepilot/action-server-go/internal/metrics"
	"github.com/pagepilot/action-server-go/internal/middleware"
	"github.com/pagepilot/action-server-go/internal/redis"
	"github.com/pagepilot/action-server-go/internal/repository"
	"github.com/pagepilot/action-server-go/internal/service"
	"github.com/pagepilot/action-server-go/internal/util"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
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

	if err := database.Migrate(db.DB); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	collector, err := metrics.NewCollector()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build metrics collector")
	}

	userRepo := repository.NewUserRepository(db.DB)
	fbSessionRepo := repository.NewFacebookSessionRepository(db.DB)
	attemptRepo := repository.NewAttemptRepository(db.DB)
	userSessionRepo := repository.NewUserSessionRepository(db.DB)

	workerClient := automation.NewClient(cfg.AutomationWorkerURL, cfg.WorkerTimeout())
	cipher := util.NewCipher(cfg.EncryptionKey)
	pacer := service.NewRandomPacer(cfg.PacingMin(), cfg.PacingMax())

	authService := service.NewAuthService(userRepo, userSessionRepo, cfg.SessionSecret)
	sessionService := service.NewSessionService(fbSessionRepo, workerClient, cipher)
	dispatcher := service.NewDispatcherService(
		userRepo, fbSessionRepo, attemptRepo, workerClient, cipher, pacer, collector,
	)
	statsService := service.NewStatsService(attemptRepo)
	dashboardService := service.NewDashboardService(userRepo, fbSessionRepo, attemptRepo)

	sessionMiddleware := middleware.NewSessionMiddleware(authService)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client, cfg.RateLimitPerMin)
	loginLimiter := middleware.NewLoginRateLimiter()
	csrfMiddleware := middleware.NewCSRFMiddleware(isProduction)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	authHandler := handler.NewAuthHandler(authService, isProduction)
	sessionHandler := handler.NewSessionHandler(sessionService)
	actionHandler := handler.NewActionHandler(dispatcher, statsService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, statsService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(collector.InstrumentHandler)
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})
	r.Get("/metrics", collector.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Use(csrfMiddleware.Handler)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
			r.Mount("/auth", authHandler.PublicRoutes(loginLimiter))
		})

		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware.Handler)
			r.Use(rateLimitMiddleware.Handler)

			// The dispatch walks sessions one at a time with pacing in
			// between, so it runs under a much longer timeout than the
			// rest of the API.
			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.Timeout(config.DispatchRequestTimeout))
				r.Post("/actions/perform", actionHandler.Perform)
			})

			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
				r.Mount("/auth", authHandler.Routes())
				r.Mount("/actions", actionHandler.Routes())
				r.Mount("/facebook", sessionHandler.Routes())
				r.Mount("/dashboard", dashboardHandler.Routes())
			})
		})
	})

	cleanupJob := jobs.NewCleanupJob(
		fbSessionRepo, userSessionRepo, attemptRepo, config.CleanupJobInterval,
	)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
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
