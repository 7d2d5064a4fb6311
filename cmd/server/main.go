package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fertilizer-advisory/internal/catalog"
	"fertilizer-advisory/internal/config"
	"fertilizer-advisory/internal/controller"
	"fertilizer-advisory/internal/middleware"
	"fertilizer-advisory/internal/model"
	"fertilizer-advisory/internal/repository"
	"fertilizer-advisory/internal/service"
	"fertilizer-advisory/internal/soil"
	"fertilizer-advisory/internal/weather"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err.Error())
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn("configuration", "warning", w)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logger.Error("failed to connect to database", "error", err.Error())
		os.Exit(1)
	}

	if err := db.AutoMigrate(
		&model.Farmer{},
		&model.Field{},
		&model.Recommendation{},
		&model.SoilSample{},
		&model.FarmerRecord{},
	); err != nil {
		logger.Error("failed to migrate database", "error", err.Error())
		os.Exit(1)
	}

	seeder := repository.NewSeedRepository(db, logger)
	if err := seeder.SeedDatabase(cfg.SoilDataFile, cfg.FarmerRecordsFile); err != nil {
		logger.Warn("failed to seed reference data", "error", err.Error())
	}

	var source weather.Source
	if cfg.WeatherEnabled() {
		source = weather.NewOpenWeatherMapSource(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, cfg.WeatherRateLimit, cfg.WeatherRateBurst)
	} else {
		logger.Warn("OPENWEATHER_API_KEY not set, serving synthetic weather")
	}
	weatherService := weather.NewService(source, cfg.WeatherCacheDuration, logger)

	engine := service.NewEngine(catalog.Default(), soil.NewDefaultEvaluator(), weatherService, logger)
	advisoryRepo := repository.NewAdvisoryRepository(db)
	advisoryService := service.NewAdvisoryService(advisoryRepo, engine, weatherService, logger)
	advisoryController := controller.NewAdvisoryController(advisoryService, logger)

	metrics := middleware.NewMetrics()

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLoggingMiddleware(logger, metrics))
	router.Use(gin.Recovery())

	v1 := router.Group("/v1")
	advisoryController.RegisterRoutes(v1)
	v1.GET("/metrics", middleware.MetricsHandler(metrics, weatherService.CacheStats))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "live_weather", weatherService.Live())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err.Error())
	}
	logger.Info("server exited")
}
