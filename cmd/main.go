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

	"github.com/Dosada05/volley-tournament/brackets"
	"github.com/Dosada05/volley-tournament/config"
	"github.com/Dosada05/volley-tournament/db"
	"github.com/Dosada05/volley-tournament/handlers"
	"github.com/Dosada05/volley-tournament/repositories"
	api "github.com/Dosada05/volley-tournament/routes"
	"github.com/Dosada05/volley-tournament/scheduler"
	"github.com/Dosada05/volley-tournament/services"
	"github.com/Dosada05/volley-tournament/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var logHandler slog.Handler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	if !cfg.LogJSON {
		logHandler = slog.NewTextHandler(os.Stdout, handlerOpts)
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	if err := db.Migrate(ctx, dbConn, logger); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Архивы экспорта в Cloudflare R2 (необязательно)
	r2Config := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	var archiveUploader storage.FileUploader
	if r2Config.IsConfigured() {
		archiveUploader, err = storage.NewCloudflareR2Uploader(ctx, r2Config)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Warn("Cloudflare R2 is not configured, archives are disabled")
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub()
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	transactor := repositories.NewTransactor(dbConn)
	ratingRepo := repositories.NewPostgresRatingRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	settingsRepo := repositories.NewPostgresSettingsRepository(dbConn)

	// Инициализация сервисов
	settingsService := services.NewSettingsService(settingsRepo, logger)
	ratingService := services.NewRatingService(transactor, ratingRepo, tournamentRepo, logger)
	balancer := services.NewTeamBalancer(ratingRepo, nil)
	tournamentService := services.NewTournamentService(
		transactor,
		tournamentRepo,
		balancer,
		settingsService,
		ratingService,
		wsHub,
		logger,
	)
	dataService := services.NewDataService(transactor, ratingRepo, tournamentRepo, settingsRepo, archiveUploader, cfg.ArchiveRetention, logger)
	logger.Info("services initialized")

	// Планировщик: повтор рейтингов и архив
	var archiver scheduler.Archiver
	if archiveUploader != nil {
		archiver = dataService
	}
	cronScheduler := scheduler.NewScheduler(ratingService, archiver, scheduler.Config{
		RatingRetrySpec: cfg.RatingRetryCron,
		ArchiveSpec:     cfg.ArchiveCron,
	}, logger)
	if err := cronScheduler.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	// Незавершённые пакеты рейтингов с прошлого запуска
	go cronScheduler.RunRatingRetryNow()

	// Инициализация обработчиков HTTP
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	ratingHandler := handlers.NewRatingHandler(ratingService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	dataHandler := handlers.NewDataHandler(dataService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		logger,
		cfg.CORSAllowedOrigins,
		tournamentHandler,
		ratingHandler,
		settingsHandler,
		dataHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		cronScheduler.Stop(shutdownCtx)

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
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
