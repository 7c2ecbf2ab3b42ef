package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"cinebay/api"
	"cinebay/config"
	"cinebay/handlers"
	"cinebay/internal/cache"
	"cinebay/internal/database"
	"cinebay/services/catalog"
	"cinebay/services/enrich"
	"cinebay/services/watched"
	"cinebay/utils"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	configFlag := flag.String("config", "", "path to settings.json")
	flag.Parse()

	fmt.Println("cinebay starting...")

	// Optional .env for provider keys and the JWT secret
	if err := godotenv.Load(); err == nil {
		log.Println("loaded environment from .env")
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = os.Getenv("CINEBAY_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join("data", "settings.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// File logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			slog.SetDefault(slog.New(slog.NewTextHandler(multiWriter, nil)))
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	if settings.Providers.OMDBAPIKey == "" && settings.Providers.TMDBAPIKey == "" {
		log.Println("Warning: no enrichment provider keys configured; catalog entries will keep raw listing metadata")
	}
	if settings.Auth.JWTSecret == "" {
		log.Println("Warning: JWT secret not configured; all requests are served anonymously")
	}

	store := cache.NewMemory()
	defer store.Close()

	if dir := filepath.Dir(settings.Database.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("failed to create database directory: %v", err)
		}
	}
	db, err := database.NewDB(database.Config{DatabasePath: settings.Database.Path})
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	enricher := enrich.NewService(
		settings.Providers.OMDBAPIKey,
		settings.Providers.TMDBAPIKey,
		store,
		time.Duration(settings.Cache.EnrichmentTTLHours)*time.Hour,
		nil,
	)

	catalogService := catalog.NewService(catalog.Config{
		YTSBaseURL:    settings.Providers.YTSBaseURL,
		APIBayBaseURL: settings.Providers.APIBayBaseURL,
		CatalogTTL:    time.Duration(settings.Cache.CatalogTTLHours) * time.Hour,
		SearchTTL:     time.Duration(settings.Cache.SearchTTLHours) * time.Hour,
	}, enricher, store)

	watchedService := watched.NewService(database.NewWatchedRepository(db.Connection()))

	moviesHandler := handlers.NewMoviesHandler(catalogService, watchedService)
	watchedHandler := handlers.NewWatchedHandler(watchedService, catalogService)

	router := utils.NewRouter()
	api.Register(router, moviesHandler, watchedHandler, settings.Auth.JWTSecret)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
