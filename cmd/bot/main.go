package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mconcas/pantrybot-backend/api/routes"
	"github.com/mconcas/pantrybot-backend/internal/bot"
	"github.com/mconcas/pantrybot-backend/internal/catalog"
	"github.com/mconcas/pantrybot-backend/internal/inventory"
	"github.com/mconcas/pantrybot-backend/internal/scan"
	"github.com/mconcas/pantrybot-backend/internal/session"
	"github.com/mconcas/pantrybot-backend/pkg/config"
	"github.com/mconcas/pantrybot-backend/pkg/db"
	"github.com/mconcas/pantrybot-backend/pkg/logger"
	"github.com/mconcas/pantrybot-backend/pkg/metrics"
	"github.com/mconcas/pantrybot-backend/pkg/migrate"
	"github.com/mconcas/pantrybot-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "bot"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "bot",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.Connect(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	botMetrics := metrics.NewBotMetrics(registry)

	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Repo:              inventory.NewRepository(dbClient.DB()),
		DefaultCategories: cfg.Bot.DefaultCategories,
		ItemsPageSize:     cfg.Bot.ItemsPageSize,
		BarcodePageSize:   cfg.Bot.BarcodePageSize,
		ReviewPageSize:    cfg.Bot.ReviewPageSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	catalogClient := catalog.NewClient(
		catalog.WithBaseURL(cfg.Catalog.BaseURL),
		catalog.WithUserAgent(cfg.Catalog.UserAgent),
		catalog.WithTimeout(cfg.Catalog.Timeout),
	)

	resolver, err := catalog.NewResolver(catalog.ResolverParams{
		Cache:   inventoryService,
		Client:  catalogClient,
		Logger:  logg,
		Metrics: botMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create product resolver", err)
		os.Exit(1)
	}

	engine, err := scan.NewEngine(scan.EngineParams{
		Inventory: inventoryService,
		Resolver:  resolver,
		Logger:    logg,
		Metrics:   botMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scan engine", err)
		os.Exit(1)
	}

	dispatcher, err := bot.NewDispatcher(bot.Params{
		Inventory: inventoryService,
		Engine:    engine,
		Sessions:  session.NewRedisStore(redisClient, cfg.Bot.SessionTTL),
		Logger:    logg,
		Metrics:   botMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatcher", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting bot gateway")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, dispatcher, registry),
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "bot gateway stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "bot gateway stopped")
}
