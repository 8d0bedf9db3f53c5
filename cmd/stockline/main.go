package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stockline/stockline/internal/app"
	"github.com/stockline/stockline/internal/auth"
	"github.com/stockline/stockline/internal/cart"
	"github.com/stockline/stockline/internal/catalog/categories"
	"github.com/stockline/stockline/internal/catalog/products"
	"github.com/stockline/stockline/internal/inventory"
	"github.com/stockline/stockline/internal/observability"
	"github.com/stockline/stockline/internal/platform/cache"
	"github.com/stockline/stockline/internal/platform/db"
	"github.com/stockline/stockline/internal/rbac"
	"github.com/stockline/stockline/internal/returns"
	"github.com/stockline/stockline/internal/sales/checkout"
	"github.com/stockline/stockline/internal/sales/customers"
	"github.com/stockline/stockline/internal/sales/transactions"
	"github.com/stockline/stockline/internal/shared"
	"github.com/stockline/stockline/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokenManager := shared.NewTokenManager(redisClient, "stockline_token", cfg.TokenSecret, cfg.TokenTTL)
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	rbacRegistry := rbac.NewRegistry()
	rbacMiddleware := rbac.Middleware{Registry: rbacRegistry, Logger: logger}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokenManager)
	authHandler := auth.NewHandler(logger, authService)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	categoriesRepo := categories.NewRepository(pool)
	categoriesHandler := categories.NewHandler(logger, categoriesRepo, rbacMiddleware)

	productsRepo := products.NewRepository(pool)
	productsService := products.NewService(productsRepo)
	productsHandler := products.NewHandler(logger, productsService, rbacMiddleware)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger, idempotencyStore, inventory.ServiceConfig{LowStockThreshold: cfg.LowStockThreshold})
	inventoryHandler := inventory.NewHandler(logger, inventoryService, rbacMiddleware)

	cartRepo := cart.NewRepository(pool)
	cartService := cart.NewService(cartRepo, productsService)
	cartHandler := cart.NewHandler(logger, cartService, rbacMiddleware)

	metrics := observability.NewMetrics()

	checkoutStore := checkout.NewPgStore(pool)
	checkoutEngine := checkout.NewEngine(checkoutStore, auditLogger, metrics, logger)
	checkoutHandler := checkout.NewHandler(logger, checkoutEngine, rbacMiddleware)

	transactionsRepo := transactions.NewRepository(pool)
	transactionsService := transactions.NewService(transactionsRepo)
	transactionsHandler := transactions.NewHandler(logger, transactionsService, rbacMiddleware)

	customersRepo := customers.NewRepository(pool)
	customersService := customers.NewService(customersRepo)
	customersHandler := customers.NewHandler(logger, customersService, rbacMiddleware)

	returnsService := returns.NewService(pool, auditLogger)
	returnsHandler := returns.NewHandler(logger, returnsService, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		TokenManager:        tokenManager,
		AuthHandler:         authHandler,
		UsersHandler:        usersHandler,
		CategoriesHandler:   categoriesHandler,
		ProductsHandler:     productsHandler,
		InventoryHandler:    inventoryHandler,
		CartHandler:         cartHandler,
		CheckoutHandler:     checkoutHandler,
		TransactionsHandler: transactionsHandler,
		CustomersHandler:    customersHandler,
		ReturnsHandler:      returnsHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
