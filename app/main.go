package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mouwelfare/crawler/app/api"
	"github.com/mouwelfare/crawler/app/attachment"
	"github.com/mouwelfare/crawler/app/cfg"
	"github.com/mouwelfare/crawler/app/crawler"
	"github.com/mouwelfare/crawler/app/database"
	"github.com/mouwelfare/crawler/app/fetch"
	"github.com/mouwelfare/crawler/app/orchestrator"
	"github.com/mouwelfare/crawler/app/output"
	"github.com/mouwelfare/crawler/app/sources"
)

func main() {
	config, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if config == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if config.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting welfare crawler", "version", config.Version)

	db, err := database.NewConnection(config.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", config.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", config.DBPath, "migration_version", version, "dirty", dirty)

	cache := sources.NewCache(config.SourcesDir)
	if err := cache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "dir", config.SourcesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "dir", config.SourcesDir, "count", cache.GetConfigCount())

	fetcher := fetch.NewFetcher(
		&http.Client{},
		config.UserAgent,
		time.Duration(config.FetchTimeout)*time.Second,
		config.AttachmentMaxBytes,
	)

	resolver := attachment.NewResolver(
		fetcher,
		config.AttachmentWorkers,
		time.Duration(config.AttachmentTimeout)*time.Second,
		config.AttachmentMaxPages,
	)

	pageTimeout := time.Duration(config.PageTimeout) * time.Second
	strategies := map[string]crawler.Source{
		sources.StrategyRecursive: crawler.NewRecursive(fetcher, resolver, config.ContentMaxLen),
		sources.StrategyListDetail: crawler.NewListDetail(
			crawler.NewBrowserSession, resolver, config.ContentMaxLen, config.UserAgent,
			pageTimeout, time.Duration(config.CourtesyDelay)*time.Millisecond),
	}

	sink := output.NewSink(config.OutputPath)
	repo := database.NewRecordRepository(db)

	orch := orchestrator.New(cache, strategies, sink, repo, config.SourceWorkers)

	handler := api.NewHandler(orch, cache, repo, config.Version)
	server := api.NewServer(handler, config.APIAccessKey)

	httpServer := &http.Server{
		Addr:    ":" + config.Port,
		Handler: server,
		// Crawl requests block until the invocation finishes, so the
		// write timeout must cover a full multi-source crawl.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", config.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Shutdown signal received", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
