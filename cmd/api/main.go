package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/inventory-tracker/api/routes"
	"github.com/angelmondragon/inventory-tracker/internal/products"
	"github.com/angelmondragon/inventory-tracker/internal/revenue"
	"github.com/angelmondragon/inventory-tracker/internal/sales"
	"github.com/angelmondragon/inventory-tracker/pkg/config"
	"github.com/angelmondragon/inventory-tracker/pkg/db"
	"github.com/angelmondragon/inventory-tracker/pkg/env"
	"github.com/angelmondragon/inventory-tracker/pkg/instance"
	"github.com/angelmondragon/inventory-tracker/pkg/logger"
	"github.com/angelmondragon/inventory-tracker/pkg/metrics"
	"github.com/angelmondragon/inventory-tracker/pkg/migrate"
	"github.com/angelmondragon/inventory-tracker/pkg/redis"
	"github.com/angelmondragon/inventory-tracker/pkg/tracing"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Fields:      map[string]any{"env": cfg.App.Env, "instance": instance.GetID()},
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, "inventory-api", cfg.App.Env)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		err = multierr.Append(err, shutdownTracing(flushCtx))
	}()
	if !cfg.Tracing.Enabled() {
		logg.Info(ctx, "tracing export disabled")
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	// Redis only backs idempotency replay; without it sales still work.
	var (
		redisPinger redis.Pinger
		idemStore   redis.IdempotencyStore
	)
	if cfg.Redis.Enabled() {
		redisClient, redisErr := redis.New(ctx, cfg.Redis, logg)
		if redisErr != nil {
			return redisErr
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		redisPinger = redisClient
		idemStore = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, idempotency replay disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	saleMetrics := metrics.NewSaleMetrics(reg)

	productRepo := products.NewRepository(dbClient.DB())
	saleRepo := sales.NewRepository(dbClient.DB())

	productService, err := products.NewService(productRepo, saleRepo, logg, saleMetrics)
	if err != nil {
		return err
	}
	processor, err := sales.NewProcessor(dbClient, productRepo, saleRepo, logg, saleMetrics)
	if err != nil {
		return err
	}
	saleService, err := sales.NewService(dbClient, saleRepo, productRepo, logg)
	if err != nil {
		return err
	}
	revenueService, err := revenue.NewService(saleRepo, logg)
	if err != nil {
		return err
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx = logg.WithField(ctx, "addr", addr)

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisPinger,
			idemStore,
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			productService,
			processor,
			saleService,
			revenueService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
