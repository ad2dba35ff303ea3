package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/labstack/echo/v4"

	"storefront/docs"
	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/handler"
	"storefront/internal/logging"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
)

// @title Storefront API
// @version 1.0
// @description Product catalog with user accounts, JWT sessions and admin-only catalog management.
// @host localhost:3000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var (
		userRepo    repository.UserRepository
		productRepo repository.ProductRepository
	)
	if cfg.DBDriver == config.DriverMemory {
		logger.Warn("using in-memory store, data is lost on exit")
		store := repository.NewMemoryStore()
		userRepo, productRepo = store.Users(), store.Products()
	} else {
		gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
		if err != nil {
			logger.Error("database init", "error", err)
			os.Exit(1)
		}
		if err := db.Migrate(gormDB, cfg.ResetDB, logger); err != nil {
			logger.Error("database migrate", "error", err)
			os.Exit(1)
		}
		userRepo = repository.NewUserRepository(gormDB)
		productRepo = repository.NewProductRepository(gormDB)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if cacheClient.Enabled() {
		if err := cacheClient.Ping(context.Background()); err != nil {
			logger.Warn("redis unreachable, product listing will not be cached", "addr", cfg.RedisAddr, "error", err)
		}
	}

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	authMiddleware := auth.NewMiddleware(jwtService)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, cfg.AdminEmail, logger)
	productService := service.NewProductService(productRepo, cacheClient, cfg.ProductsCacheTTL, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(
		e,
		cfg,
		logger,
		authMiddleware,
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(authService),
		handler.NewProductHandler(productService),
	)

	docs.SwaggerInfo.Host = swaggerHost(cfg.SwaggerHost, cfg.ServerPort)
	logger.Info("swagger documentation available", "url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.ServerPort
	go func() {
		logger.Info("server listening", "addr", addr, "driver", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// swaggerHost strips any scheme from the configured host and falls back to
// the local listen port.
func swaggerHost(configured, port string) string {
	if configured == "" {
		return "localhost:" + port
	}
	host := strings.TrimPrefix(configured, "https://")
	host = strings.TrimPrefix(host, "http://")
	return strings.TrimSuffix(host, "/")
}
