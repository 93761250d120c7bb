package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mpetrie/pressmill/app/analytics"
	"github.com/mpetrie/pressmill/app/api"
	"github.com/mpetrie/pressmill/app/cfg"
	"github.com/mpetrie/pressmill/app/content"
	"github.com/mpetrie/pressmill/app/database"
	"github.com/mpetrie/pressmill/app/render"
	"github.com/mpetrie/pressmill/app/source"
	"github.com/mpetrie/pressmill/app/tasks"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	log.Printf("Starting Pressmill %s...", appCfg.Version)
	if appCfg.BaseUrl != "" {
		log.Printf("Public base URL: %s", appCfg.BaseUrl)
	}

	// Database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Database ready (migration version %d, dirty: %t)", version, dirty)

	// Load content type configurations
	log.Printf("Loading content type configurations from %s...", appCfg.ContentDir)
	configCache := content.NewConfigCache(appCfg.ContentDir)
	if err := configCache.Run(); err != nil {
		log.Fatalf("Failed to load content type configurations: %v", err)
	}
	log.Printf("Loaded %d content type configurations", configCache.GetConfigCount())

	// Shared HTTP client for remote sources, extraction and analytics
	httpClient := &http.Client{Timeout: 60 * time.Second}

	// Build the compilation pipeline for each content type
	repo := database.NewContentRepository(db)
	compilers := make(map[string]*content.Compiler)

	for name, config := range configCache.GetConfigs() {
		contentSource, err := buildSource(config, httpClient, appCfg.UserAgent)
		if err != nil {
			log.Fatalf("Failed to initialize source for '%s': %v", name, err)
		}

		renderer := render.NewRenderer(config.Assets.Dir, config.Assets.BasePath)
		compilers[name] = content.NewCompiler(config, contentSource, renderer)

		log.Printf("Initialized content type: %s (mode: %s, enabled: %t)", name, config.Source.Mode, config.Settings.Enabled)
	}

	cache := content.NewCache(repo, compilers)
	analyticsClient := analytics.NewClient(appCfg.AnalyticsUrl, appCfg.AnalyticsToken, httpClient, appCfg.UserAgent)

	// Initialize and start scheduler
	log.Printf("Starting background scheduler with %d workers...", appCfg.WorkerCount)
	scheduler := tasks.NewScheduler(configCache, cache, content.NewExtractor(), analyticsClient, httpClient)
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize HTTP server
	log.Println("Initializing HTTP server...")
	apiHandler := api.NewHandler(configCache, cache, analyticsClient, repo, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		log.Printf("Endpoints available:")
		log.Printf("  Content list:  http://localhost:%s/content/<type>?page=<n>", appCfg.Port)
		log.Printf("  Content item:  http://localhost:%s/content/<type>/<slug>", appCfg.Port)
		log.Printf("  Health check:  http://localhost:%s/health", appCfg.Port)
		log.Printf("  Statistics:    http://localhost:%s/stats", appCfg.Port)

		if appCfg.APIAccessKey != "" {
			log.Printf("  Summary:       http://localhost:%s/api/content (requires API key)", appCfg.Port)
			log.Printf("  Rebuild:       http://localhost:%s/api/content/<type>/rebuild (POST, requires API key)", appCfg.Port)
		} else {
			log.Printf("  API endpoints: DISABLED (API_ACCESS_KEY not set)")
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Pressmill started successfully!")
	log.Println("Press Ctrl+C to shutdown gracefully...")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	log.Println("Background scheduler stopped")

	log.Println("Pressmill shutdown complete")
}

func buildSource(config *content.Config, httpClient *http.Client, userAgent string) (content.Source, error) {
	switch config.Source.Mode {
	case content.SourceModeFilesystem:
		return source.NewFilesystem(config.Source.Dir), nil
	case content.SourceModeRemote:
		token := ""
		if config.Source.TokenEnv != "" {
			token = os.Getenv(config.Source.TokenEnv)
			if token == "" {
				log.Printf("Warning: token environment variable %s is empty for '%s'", config.Source.TokenEnv, config.Type)
			}
		}
		return source.NewRemote(config.Source.URL, token, config.Settings.GetTimeout(), httpClient, userAgent), nil
	default:
		return nil, fmt.Errorf("unsupported source mode '%s'", config.Source.Mode)
	}
}
