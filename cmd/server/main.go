package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/labstack/echo/v4"

	"manpower/docs" // swagger docs
	"manpower/internal/auth"
	"manpower/internal/cache"
	"manpower/internal/config"
	"manpower/internal/db"
	"manpower/internal/handler"
	"manpower/internal/model"
	"manpower/internal/repository"
	"manpower/internal/router"
	"manpower/internal/service"
	"manpower/internal/worker"
)

// @title Manpower Scheduling API
// @version 1.0
// @description Task assignment and engineer scheduling API with availability checks and JWT authentication.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	gormDB, err := db.Open(cfg)
	if err != nil {
		logger.Error("database init", slog.Any("error", err))
		os.Exit(1)
	}

	// Drop tables if RESET_DB environment variable is set
	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		for _, table := range []interface{}{&model.Task{}, &model.User{}} {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				logger.Warn("drop table failed (may not exist)", slog.Any("error", err))
			}
		}
	}

	if err := gormDB.AutoMigrate(&model.User{}, &model.Task{}); err != nil {
		logger.Error("auto-migrate", slog.Any("error", err))
		os.Exit(1)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, "manpower:")
	if err := cacheClient.Ping(context.Background()); err != nil {
		logger.Warn("redis unavailable, continuing without cache", slog.Any("error", err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient, jwtService.TTL())
	hasher := auth.NewPasswordHasher(auth.DefaultBcryptCost)

	// Initialize services
	userService := service.NewUserService(userRepo, cacheClient, hasher, tokenStore)
	authService := service.NewAuthService(userRepo, userService, jwtService, tokenStore, hasher, service.AdminCredential{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
	})
	engineerService := service.NewEngineerService(userRepo, taskRepo)
	taskService := service.NewTaskService(taskRepo, userRepo, service.TaskOptions{RejectPastSlots: cfg.RejectPastSlots}, logger)
	lifecycleService := service.NewLifecycleService(taskRepo, logger)

	scheduler := worker.NewStatusScheduler(lifecycleService, cfg.StatusSweepInterval, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, jwtService, authService, router.Handlers{
		Auth:     handler.NewAuthHandler(authService, userService),
		User:     handler.NewUserHandler(userService),
		Engineer: handler.NewEngineerHandler(engineerService),
		Task:     handler.NewTaskHandler(taskService, scheduler),
		Health:   handler.NewHealthHandler(scheduler),
	}, logger)

	if cfg.SwaggerHost != "" {
		host := strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "http://"), "https://")
		docs.SwaggerInfo.Host = host
	}
	logger.Info("swagger documentation available", slog.String("url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html"))

	scheduler.Start()

	addr := ":" + cfg.ServerPort
	go func() {
		logger.Info("http server listening", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server start", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				return e.Shutdown(ctx)
			},
			"status-scheduler": func(ctx context.Context) error {
				return scheduler.Stop(ctx)
			},
		},
	)

	exitCode := <-wait

	if err := cacheClient.Close(); err != nil {
		logger.Warn("close redis", slog.Any("error", err))
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("server exited", slog.Int("code", exitCode))
	os.Exit(exitCode)
}
