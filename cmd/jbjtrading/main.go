package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fcgregorio/jbj-trading/internal/app"
	"github.com/fcgregorio/jbj-trading/internal/auth"
	"github.com/fcgregorio/jbj-trading/internal/catalog/categories"
	"github.com/fcgregorio/jbj-trading/internal/catalog/items"
	"github.com/fcgregorio/jbj-trading/internal/catalog/units"
	"github.com/fcgregorio/jbj-trading/internal/history"
	"github.com/fcgregorio/jbj-trading/internal/ledger"
	"github.com/fcgregorio/jbj-trading/internal/platform/cache"
	"github.com/fcgregorio/jbj-trading/internal/platform/db"
	"github.com/fcgregorio/jbj-trading/internal/users"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// Token resolution falls back to the database when the cache
		// is unavailable.
		logger.Warn("redis unavailable", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	recorder := history.NewRecorder()
	historyService := history.NewService(history.NewRepository(dbpool))

	unitsService := units.NewService(units.NewRepository(dbpool, recorder))
	unitsHandler := units.NewHandler(logger, unitsService, historyService)

	categoriesService := categories.NewService(categories.NewRepository(dbpool, recorder))
	categoriesHandler := categories.NewHandler(logger, categoriesService, historyService)

	itemsService := items.NewService(items.NewRepository(dbpool, recorder))
	itemsHandler := items.NewHandler(logger, itemsService, historyService)

	ledgerService := ledger.NewService(ledger.NewRepository(dbpool, recorder))
	ledgerHandler := ledger.NewHandler(logger, ledgerService, historyService)

	usersRepo := users.NewRepository(dbpool, recorder)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, historyService)

	authService := auth.NewService(auth.NewRepository(dbpool), usersRepo, redisClient, cfg.TokenTTL)
	authHandler := auth.NewHandler(logger, authService)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthService:       authService,
		AuthHandler:       authHandler,
		UnitsHandler:      unitsHandler,
		CategoriesHandler: categoriesHandler,
		ItemsHandler:      itemsHandler,
		LedgerHandler:     ledgerHandler,
		UsersHandler:      usersHandler,
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
