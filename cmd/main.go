package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/feedline/auth-server/database"
	"github.com/feedline/auth-server/internal/config"
	"github.com/feedline/auth-server/internal/logger"
	"github.com/feedline/auth-server/internal/maintenance"
	"github.com/feedline/auth-server/internal/metrics"
	"github.com/feedline/auth-server/internal/model"
	"github.com/feedline/auth-server/internal/server"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	if err := database.Migrate(ctx, cfg.Database.DSN); err != nil {
		logger.Fatal("failed to run migrations", "error", err)
	}

	sqlDB, err := database.Open(cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to open maintenance connection", "error", err)
	}
	defer sqlDB.Close()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	janitor := maintenance.NewJanitor(sqlDB, maintenance.Config{
		Interval:  cfg.Janitor.Interval,
		Retention: cfg.Janitor.Retention,
		BatchSize: cfg.Janitor.BatchSize,
	}, m, logger)

	metricsServer := server.NewMetricsServer(registry, cfg.Metrics.Addr)

	var sl model.SecurityLayer
	if cfg.Metrics.EnableHTTPS {
		sl = server.NewTLSListener(cfg.Metrics.CertFileName, cfg.Metrics.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("starting metrics server", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start metrics server", "error", err)
		}
	}(metricsServer)

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting janitor", "interval", cfg.Janitor.Interval.String())
		janitor.Run(ctx)
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := metricsServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", metricsServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
