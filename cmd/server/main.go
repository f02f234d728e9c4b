package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flightwx/skybrief/internal/airports"
	"github.com/flightwx/skybrief/internal/api"
	"github.com/flightwx/skybrief/internal/briefing"
	"github.com/flightwx/skybrief/internal/config"
	"github.com/flightwx/skybrief/internal/geo"
	"github.com/flightwx/skybrief/internal/history"
	"github.com/flightwx/skybrief/internal/predict"
	"github.com/flightwx/skybrief/internal/websocket"
	"github.com/flightwx/skybrief/internal/wx"
	"github.com/flightwx/skybrief/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting SkyBrief server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Airport directory (CSV with built-in fallback set)
	directory, err := airports.NewDirectory(cfg.Airports.DBPath, log)
	if err != nil {
		log.Error("Failed to load airport directory", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Airport directory loaded", logger.Int("airports", directory.Size()))

	// Historical weather patterns (optional)
	patterns, err := history.NewStore(cfg.History.DBPath, log)
	if err != nil {
		log.Error("Failed to open historical pattern store", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Historical patterns loaded", logger.Int("patterns", patterns.Size()))

	// Predictive model registry (optional)
	registry := predict.LoadRegistry(cfg.Models.Dir, log)
	log.Info("Model registry loaded", logger.Int("models", registry.Len()))

	// Weather aggregator
	wxConfig := wx.Config{
		APIBaseURL:              cfg.Weather.APIBaseURL,
		PrimaryTimeoutSeconds:   cfg.Weather.PrimaryTimeoutSeconds,
		SecondaryTimeoutSeconds: cfg.Weather.SecondaryTimeoutSeconds,
		CacheSize:               cfg.Weather.CacheSize,
		CacheTTLMinutes:         cfg.Weather.CacheTTLMinutes,
	}
	aggregator := wx.NewAggregator(wxConfig, directory, patterns, log)

	// Route geometry engine
	engine := geo.NewEngine(directory, log)

	// Optional plain-language narrative generation
	var narrator *briefing.Narrator
	if cfg.Briefing.NarrativeEnabled {
		narrator, err = briefing.NewNarrator(ctx, cfg.Briefing.GeminiAPIKey, cfg.Briefing.NarrativeModel, log)
		if err != nil {
			log.Error("Failed to create narrator, continuing without narratives", logger.Error(err))
			narrator = nil
		}
	}

	composer := briefing.NewComposer(engine, aggregator, predict.NewBridge(registry), narrator, cfg.Briefing.PointsPerLeg, log)

	// WebSocket server for briefing event streaming
	wsServer := websocket.NewServer(log)
	go wsServer.Run()

	handler := api.NewHandler(composer, engine, aggregator, directory, cfg, log, wsServer)
	router := api.NewRouter(handler, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error on startup", logger.String("addr", server.Addr), logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logger.Error(err))
	}

	log.Info("Server fully stopped")
}
