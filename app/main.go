package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/page-comb/app/api"
	"github.com/lysyi3m/page-comb/app/cache"
	"github.com/lysyi3m/page-comb/app/catalog"
	"github.com/lysyi3m/page-comb/app/cfg"
	"github.com/lysyi3m/page-comb/app/database"
	"github.com/lysyi3m/page-comb/app/fetcher"
	"github.com/lysyi3m/page-comb/app/plugin"
	"github.com/lysyi3m/page-comb/app/registry"
	"github.com/lysyi3m/page-comb/app/render"
	"github.com/lysyi3m/page-comb/app/tasks"
	"github.com/lysyi3m/page-comb/app/tracing"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Page Comb server", "version", appCfg.Version)

	tracer, err := tracing.NewProvider(tracing.Config{Enabled: appCfg.Tracing})
	if err != nil {
		slog.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	pageFetcher := fetcher.NewFetcher(&http.Client{Timeout: appCfg.HTTPTimeout}, appCfg.UserAgent)

	var source catalog.Source
	if appCfg.CatalogDir != "" {
		slog.Info("Using local plugin catalog", "dir", appCfg.CatalogDir)
		source = catalog.NewLocalSource(appCfg.CatalogDir)
	} else {
		slog.Info("Using remote plugin catalog", "api", appCfg.CatalogAPIURL, "user", appCfg.CatalogUser, "repo", appCfg.CatalogRepo)
		source = catalog.NewRemoteSource(pageFetcher, appCfg.CatalogAPIURL, appCfg.CatalogUser, appCfg.CatalogRepo)
	}

	var history database.HistoryRepository
	var recorder registry.Recorder
	if appCfg.DBPath != "" {
		db, err := database.Open(appCfg.DBPath)
		if err != nil {
			slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()

		repo := database.NewRefreshRepository(db)
		history = repo
		recorder = database.NewRefreshRecorder(repo)
	} else {
		slog.Info("Refresh history disabled (DB_PATH not set)")
	}

	reg := registry.NewRegistry(source, plugin.NewFactory(), registry.Options{
		ParsersDir:   appCfg.ParsersDir,
		TemplatesDir: appCfg.TemplatesDir,
		Concurrency:  appCfg.RefreshConcurrency,
		Recorder:     recorder,
		Tracer:       tracer.Tracer(),
	})

	// An empty catalog still lets the server start; failures are on /health.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 2*appCfg.HTTPTimeout+10*time.Second)
	if err := reg.Refresh(startupCtx); err != nil {
		slog.Warn("Initial catalog refresh incomplete", "error", err)
	}
	cancelStartup()

	state := reg.State()
	slog.Info("Plugin catalog loaded", "parsers", state.Parsers.Len(), "templates", state.Templates.Len())

	scheduler := tasks.NewScheduler(reg, tasks.Options{
		CheckInterval: appCfg.RefreshCheckInterval,
		StaleAfter:    appCfg.RefreshStaleAfter,
	})
	scheduler.Start()
	defer scheduler.Stop()

	var renderCache cache.Store
	if appCfg.RenderCacheTTL > 0 {
		renderCache = newRenderCache(appCfg)
		defer renderCache.Close()
	}

	pipeline := render.NewPipeline(registry.NewDispatcher(reg), pageFetcher, render.Options{
		ContentType: appCfg.ContentType,
		Cache:       renderCache,
		CacheTTL:    appCfg.RenderCacheTTL,
		Tracer:      tracer.Tracer(),
	})

	apiHandler := api.NewHandler(pipeline, reg, history, appCfg.Version)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: appCfg.HTTPTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := tracer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Tracer shutdown error", "error", err)
	}

	slog.Info("Page Comb server shutdown complete")
}

// newRenderCache prefers Redis when configured and falls back to memory.
func newRenderCache(appCfg *cfg.Cfg) cache.Store {
	if appCfg.RedisAddr == "" {
		slog.Info("Render cache enabled", "backend", "memory", "ttl", appCfg.RenderCacheTTL)
		return cache.NewMemoryStore(appCfg.RenderCacheTTL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := cache.NewRedisStore(ctx, appCfg.RedisAddr)
	if err != nil {
		slog.Warn("Redis unavailable, using in-memory render cache", "error", err)
		return cache.NewMemoryStore(appCfg.RenderCacheTTL)
	}

	slog.Info("Render cache enabled", "backend", "redis", "ttl", appCfg.RenderCacheTTL)
	return store
}
