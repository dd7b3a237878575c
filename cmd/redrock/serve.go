package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhi0395/redrock/internal/config"
	"github.com/abhi0395/redrock/internal/db/redis"
	"github.com/abhi0395/redrock/internal/logger"
	"github.com/abhi0395/redrock/internal/metrics"
	archrepo "github.com/abhi0395/redrock/internal/repository/archetype"
	"github.com/abhi0395/redrock/internal/repository/fitcache"
	tmplrepo "github.com/abhi0395/redrock/internal/repository/template"
	transport "github.com/abhi0395/redrock/internal/transport/http"
	healthuc "github.com/abhi0395/redrock/internal/usecase/health"
	"github.com/abhi0395/redrock/internal/usecase/pipeline"
	zfituc "github.com/abhi0395/redrock/internal/usecase/zfit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP fit service",
	RunE: func(_ *cobra.Command, _ []string) error {
		return serve()
	},
}

func serve() error {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	metrics.RegisterFitMetrics()

	templates, err := tmplrepo.NewFromDir(cfg.Fit.TemplateDir)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	log.Info("template library loaded",
		zap.String("dir", cfg.Fit.TemplateDir),
		zap.Int("templates", len(templates.All())),
	)

	var archetypes pipeline.ArchetypeStore
	if cfg.Fit.ArchetypeDir != "" {
		repo, err := archrepo.NewFromDir(cfg.Fit.ArchetypeDir)
		if err != nil {
			return fmt.Errorf("load archetypes: %w", err)
		}
		archetypes = repo
		log.Info("archetype library loaded", zap.String("dir", cfg.Fit.ArchetypeDir))
	}

	var cache pipeline.FitCache
	var cachePinger healthuc.CachePinger
	if cfg.Cache.Enabled {
		store, err := redis.NewStore(redis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			return fmt.Errorf("create cache store: %w", err)
		}
		defer store.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(context.Background(), readiness); err != nil {
			return fmt.Errorf("cache store not ready: %w", err)
		}
		cache = fitcache.New(store, time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.FitCacheTotal, log)
		cachePinger = store
		log.Info("fit cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	refiner := zfituc.New(log)
	fitter := pipeline.New(refiner, archetypes, cache, pipeline.Params{
		NMinima:      cfg.Fit.NMinima,
		MaxVeloDiff:  cfg.Fit.MaxVeloDiffKms,
		MinDeltaChi2: cfg.Fit.MinDeltaChi2,
		DegLegendre:  cfg.Fit.DegLegendre,
		Workers:      cfg.Fit.Workers,
		NNeighbors:   cfg.Fit.NNeighbors,
	}, log)

	health := healthuc.New(templates, cachePinger)
	server := transport.NewServer(fitter, templates, health)

	r := chi.NewRouter()
	r.Use(transport.JSONRecoverer(log))
	r.Use(chiMiddleware.RequestID)
	r.Use(transport.WideEventMiddleware(log))
	r.Use(transport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)
	r.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	log.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
	}

	log.Info("Server stopped gracefully")
	return nil
}
