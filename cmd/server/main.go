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
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ridefleet/fleet-admin-go/internal/config"
	"github.com/ridefleet/fleet-admin-go/internal/database"
	"github.com/ridefleet/fleet-admin-go/internal/handler"
	"github.com/ridefleet/fleet-admin-go/internal/jobs"
	"github.com/ridefleet/fleet-admin-go/internal/middleware"
	"github.com/ridefleet/fleet-admin-go/internal/redis"
	"github.com/ridefleet/fleet-admin-go/internal/repository"
	"github.com/ridefleet/fleet-admin-go/internal/service"
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

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	staffRepo := repository.NewStaffUserRepository(db.DB)
	driverRepo := repository.NewDriverRepository(db.DB)
	partnerRepo := repository.NewPartnerRepository(db.DB)
	rideRepo := repository.NewRideRepository(db.DB)
	deviceRepo := repository.NewMobileDeviceRepository(db.DB)
	tokenRepo := repository.NewConnectionTokenRepository(db.DB)
	adminSessionRepo := repository.NewAdminSessionRepository(db.DB)

	mobileAuthService := service.NewMobileAuthService(staffRepo, driverRepo, deviceRepo, cfg.DeviceKeySecret)
	pairingService := service.NewPairingService(
		db, tokenRepo, staffRepo, driverRepo, deviceRepo, mobileAuthService, cfg.PublicBaseURL,
	)
	driverService := service.NewDriverService(driverRepo, deviceRepo)
	staffService := service.NewStaffService(staffRepo, deviceRepo)
	partnerService := service.NewPartnerService(partnerRepo)
	rideService := service.NewRideService(rideRepo, driverRepo)
	deviceService := service.NewDeviceService(deviceRepo)
	geocodeService := service.NewGeocodeService(redisClient, cfg.GeocodeBaseURL, cfg.GeocodeCacheTTL())
	adminService := service.NewAdminService(
		adminSessionRepo, staffRepo, driverRepo, partnerRepo, rideRepo,
		cfg.AdminPasswordHash, cfg.AdminSessionSecret,
	)
	rateLimiter := service.NewRateLimiter(redisClient.Client)

	adminSessionMiddleware := middleware.NewAdminSessionMiddleware(
		adminSessionRepo, cfg.AdminPasswordHash, cfg.AdminSessionSecret,
	)
	deviceAuthMiddleware := middleware.NewDeviceAuthMiddleware(mobileAuthService)
	mobileRateLimitMiddleware := middleware.NewIPRateLimitMiddleware(
		rateLimiter, config.MobileRateLimitPerMin, config.MobileRateLimitWindow, "mobile",
	)
	csrfMiddleware := middleware.NewCSRFMiddleware(isProduction)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	pairingHandler := handler.NewPairingHandler(pairingService)
	driverHandler := handler.NewDriverHandler(driverService)
	staffHandler := handler.NewStaffHandler(staffService)
	partnerHandler := handler.NewPartnerHandler(partnerService)
	rideHandler := handler.NewRideHandler(rideService)
	geocodeHandler := handler.NewGeocodeHandler(geocodeService)
	adminHandler := handler.NewAdminHandler(
		adminService, adminSessionMiddleware.Handler, isProduction,
		pairingHandler, driverHandler, staffHandler, partnerHandler, rideHandler,
	)
	mobileHandler := handler.NewMobileHandler(pairingService, rideService, deviceService, deviceAuthMiddleware)

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

	r.Route("/mobile", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins(),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{
				"Content-Type",
				middleware.IdentityKindHeader,
				middleware.IdentityIDHeader,
				middleware.DeviceKeyHeader,
			},
			MaxAge: 300,
		}))
		r.Use(mobileRateLimitMiddleware.Handler)
		r.Mount("/", mobileHandler.Routes())
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Use(csrfMiddleware.Handler)
		r.Mount("/", adminHandler.Routes())
	})

	r.Route("/api/geocode", func(r chi.Router) {
		r.Use(adminSessionMiddleware.Handler)
		r.Mount("/", geocodeHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(adminSessionRepo, tokenRepo, config.CleanupJobInterval)
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
