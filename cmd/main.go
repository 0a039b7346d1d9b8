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

	"github.com/Dosada05/tournament-forecast/brackets"
	"github.com/Dosada05/tournament-forecast/config"
	"github.com/Dosada05/tournament-forecast/db"
	"github.com/Dosada05/tournament-forecast/handlers"
	"github.com/Dosada05/tournament-forecast/repositories"
	api "github.com/Dosada05/tournament-forecast/routes"
	"github.com/Dosada05/tournament-forecast/services"
	"github.com/Dosada05/tournament-forecast/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})) // Default to Info level
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.Int("trials", cfg.Forecast.Trials),
		slog.Int("workers", cfg.Forecast.Workers),
	)

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

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.EnsureSchema(schemaCtx, dbConn)
	cancelSchema()
	if err != nil {
		logger.Error("failed to apply database schema", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация хранилища отчётов (Cloudflare R2), если оно настроено
	var reportStore storage.ReportStore
	if cfg.R2.Enabled() {
		reportStore, err = storage.NewR2ReportStore(context.Background(), storage.R2Config{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 report store", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 report store initialized")
	} else {
		logger.Info("R2 is not configured, CSV reports will not be uploaded")
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	fixtureRepo := repositories.NewPostgresFixtureRepository(dbConn)
	paramRepo := repositories.NewPostgresRateParamRepository(dbConn)
	forecastRepo := repositories.NewPostgresForecastRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	forecastService := services.NewForecastService(
		dbConn, // Pass dbConn for transaction management
		fixtureRepo,
		paramRepo,
		forecastRepo,
		reportStore,
		wsHub,
		cfg.Forecast.Settings(),
		logger,
	)
	previewService := services.NewPreviewService(fixtureRepo, paramRepo, cfg.Forecast.MaxGoals)
	datasetService := services.NewDatasetService(dbConn, fixtureRepo, paramRepo, logger)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	forecastHandler := handlers.NewForecastHandler(forecastService)
	previewHandler := handlers.NewPreviewHandler(previewService)
	datasetHandler := handlers.NewDatasetHandler(datasetService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, forecastService)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		forecastHandler,
		previewHandler,
		datasetHandler,
		webSocketHandler,
		cfg.JWTSecretKey,
	)
	logger.Info("Routes configured")

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
		} else {
			logger.Info("server shutdown complete")
		}

		// Текущий прогон отменяется и помечается как failed до закрытия базы
		if err := forecastService.Shutdown(shutdownCtx); err != nil {
			logger.Error("forecast service shutdown failed", slog.Any("error", err))
		}
	}
	logger.Info("application exited")
}
