package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	corecfg "github.com/profitlens/profitlens/internal/core/config"
	"github.com/profitlens/profitlens/internal/core/marketplace"
	"github.com/profitlens/profitlens/internal/core/storage/postgres"
	"github.com/profitlens/profitlens/internal/ingestion"
	"github.com/profitlens/profitlens/internal/metrics"
	"github.com/profitlens/profitlens/internal/migrations"
	"github.com/profitlens/profitlens/internal/query"
	"github.com/profitlens/profitlens/internal/server"
)

func main() {
	configPath := flag.String("config", "profitlens.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "config", cfg)

	// 2. Initialize Storage (PostgreSQL)
	factStore, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer factStore.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(factStore.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// 3. Load Marketplace Catalog
	catalog, err := marketplace.LoadCatalog(cfg.Marketplace.CatalogPath)
	if err != nil {
		slog.Error("Failed to load marketplace catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("Marketplace catalog loaded", "marketplaces", catalog.IDs())

	// 4. Initialize Metrics
	registry := prometheus.NewRegistry()
	queryMx := metrics.NewQueryMetrics(registry)

	// 5. Initialize Ingestion (facts written straight to the store)
	ingestionSvc := ingestion.NewService(factStore, cfg.Server.MaxBodySizeMB)

	// 6. Initialize Query Service (economics aggregation engine)
	querySvc := query.NewService(factStore, catalog, queryMx, cfg.Engine.WorkerCount)

	// 7. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), factStore, cfg.Server.Mode, registry)
	ingestionSvc.RegisterRoutes(srv.Engine)
	querySvc.RegisterRoutes(srv.Engine)

	// 8. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
