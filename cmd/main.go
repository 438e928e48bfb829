package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/itamhack/hackathon-system/cache"
	"github.com/itamhack/hackathon-system/config"
	"github.com/itamhack/hackathon-system/db"
	"github.com/itamhack/hackathon-system/handlers"
	"github.com/itamhack/hackathon-system/notifications"
	"github.com/itamhack/hackathon-system/repositories"
	api "github.com/itamhack/hackathon-system/routes"
	"github.com/itamhack/hackathon-system/services"
	"github.com/itamhack/hackathon-system/storage"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	redisClient, err := cache.NewRedisClient(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis connection", slog.Any("error", err))
		}
	}()
	logger.Info("redis connection established")

	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	hub := notifications.NewHub(logger)
	go hub.Run()
	logger.Info("notification hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	hackathonRepo := repositories.NewPostgresHackathonRepository(dbConn)
	invitationRepo := repositories.NewPostgresInvitationRepository(dbConn)
	adminRepo := repositories.NewPostgresAdminRepository(dbConn)
	txManager := repositories.NewSQLTxManager(dbConn)
	logger.Info("repositories initialized")

	codeStore := cache.NewRedisLoginCodeStore(redisClient)
	profileService := services.NewProfileService(userRepo, uploader)
	authService := services.NewAuthService(
		codeStore,
		profileService,
		cfg.JWTSecretKey,
		cfg.TokenTTL,
		cfg.LoginCodeTTL,
		cfg.LoginCodeLength,
	)
	adminService := services.NewAdminService(adminRepo, authService)
	hackathonService := services.NewHackathonService(hackathonRepo, teamRepo, userRepo, invitationRepo, txManager, uploader)
	teamService := services.NewTeamService(teamRepo, userRepo, hackathonRepo, invitationRepo, txManager, uploader, hub, cfg.TeamPasswordLength)
	invitationService := services.NewInvitationService(invitationRepo, teamRepo, userRepo, hackathonRepo, txManager, hub)
	logger.Info("services initialized")

	if cfg.AdminLogin != "" {
		if err := adminService.EnsureBootstrapAdmin(context.Background(), cfg.AdminLogin, cfg.AdminPassword); err != nil {
			logger.Error("failed to bootstrap admin account", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("bootstrap admin ensured", slog.String("login", cfg.AdminLogin))
	}

	authHandler := handlers.NewAuthHandler(authService, cfg.TokenTTL)
	adminHandler := handlers.NewAdminHandler(adminService, cfg.TokenTTL)
	profileHandler := handlers.NewProfileHandler(profileService)
	hackathonHandler := handlers.NewHackathonHandler(hackathonService)
	teamHandler := handlers.NewTeamHandler(teamService)
	invitationHandler := handlers.NewInvitationHandler(invitationService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authService,
		authHandler,
		adminHandler,
		profileHandler,
		hackathonHandler,
		teamHandler,
		invitationHandler,
		webSocketHandler,
		cfg.CORSAllowedOrigins,
		cfg.BotAPIKey,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
