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
	_ "github.com/lib/pq"

	"github.com/quadra-gg/quadra/config"
	"github.com/quadra-gg/quadra/db"
	"github.com/quadra-gg/quadra/handlers"
	"github.com/quadra-gg/quadra/live"
	"github.com/quadra-gg/quadra/middleware"
	"github.com/quadra-gg/quadra/repositories"
	api "github.com/quadra-gg/quadra/routes"
	"github.com/quadra-gg/quadra/services"
	"github.com/quadra-gg/quadra/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
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

	// Инициализация загрузчика файлов (Cloudflare R2)
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

	// Инициализация WebSocket Hub
	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	txManager := repositories.NewTxManager(dbConn, logger)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	resultRepo := repositories.NewPostgresResultRepository(dbConn)
	disputeRepo := repositories.NewPostgresDisputeRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	logger.Info("repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo)
	teamService := services.NewTeamService(teamRepo, userRepo)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, wsHub, logger)
	achievementChecker := services.NewStatsAchievementChecker(userRepo, notificationService)
	stageAdvancer := services.NewStageService(tournamentRepo, matchRepo, wsHub, logger)
	tournamentService := services.NewTournamentService(tournamentRepo, matchRepo, resultRepo, registrationRepo, txManager)
	registrationService := services.NewRegistrationService(
		registrationRepo,
		tournamentRepo,
		teamRepo,
		userRepo,
		txManager,
		notificationService,
		logger,
	)
	matchService := services.NewMatchService(matchRepo, tournamentRepo, registrationRepo)
	scoreService := services.NewScoreService(matchRepo, registrationRepo, teamRepo, wsHub, logger)
	resultService := services.NewResultService(
		resultRepo,
		matchRepo,
		tournamentRepo,
		registrationRepo,
		userRepo,
		txManager,
		notificationService,
		achievementChecker,
		stageAdvancer,
		logger,
	)
	disputeService := services.NewDisputeService(disputeRepo, resultRepo, notificationService, logger)
	logger.Info("services initialized")

	// Инициализация обработчиков HTTP
	auth := middleware.NewAuth(cfg.JWTSecretKey)
	h := api.Handlers{
		Auth:         handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		Team:         handlers.NewTeamHandler(teamService),
		Tournament:   handlers.NewTournamentHandler(tournamentService, registrationService),
		Match:        handlers.NewMatchHandler(matchService),
		Live:         handlers.NewLiveHandler(scoreService),
		Result:       handlers.NewResultHandler(resultService, disputeService, uploader),
		Dispute:      handlers.NewDisputeHandler(disputeService),
		Notification: handlers.NewNotificationHandler(notificationService),
		WebSocket:    handlers.NewWebSocketHandler(wsHub, auth, logger),
	}
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, h, auth, cfg.CORSAllowedOrigins)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
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

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
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
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
