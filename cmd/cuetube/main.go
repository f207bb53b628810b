package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cuetube/cuetube/internal/api"
	"github.com/cuetube/cuetube/internal/database"
	"github.com/cuetube/cuetube/internal/editor"
	"github.com/cuetube/cuetube/internal/export"
	"github.com/cuetube/cuetube/internal/geoip"
	"github.com/cuetube/cuetube/internal/logger"
	"github.com/cuetube/cuetube/internal/metrics"
	"github.com/cuetube/cuetube/internal/server"
	"github.com/cuetube/cuetube/internal/storage"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println(".env loaded")
	}

	slog.SetDefault(logger.New(getEnv("LOG_LEVEL", "info"), getEnv("LOG_FORMAT", "json")))

	port := getEnv("PORT", "8080")
	baseURL := getEnv("BASE_URL", "http://localhost:"+port)

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(databaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	log.Println("database migrations applied")

	var geo *geoip.Resolver
	if path := os.Getenv("GEOIP_DB_PATH"); path != "" {
		geo = geoip.New(path)
		defer geo.Close()
	}

	var store *storage.Storage
	if os.Getenv("S3_ACCESS_KEY") != "" {
		store, err = storage.New(ctx, storage.Config{
			Endpoint:  getEnv("S3_ENDPOINT", "http://localhost:9000"),
			Bucket:    getEnv("S3_BUCKET", "cuetube-exports"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Region:    getEnv("S3_REGION", "eu-central-1"),
		})
		if err != nil {
			log.Fatalf("storage initialization failed: %v", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatalf("storage bucket check failed: %v", err)
		}
		log.Println("export bucket ready")
	} else {
		log.Println("S3 credentials not set, library exports disabled")
	}

	var webFS fs.FS
	if dir := getEnv("WEB_DIR", "web/dist"); dirExists(dir) {
		webFS = os.DirFS(dir)
		log.Printf("serving page shell from %s", dir)
	} else {
		log.Println("no page shell found, static serving disabled")
	}

	m := metrics.New()

	// Engine sessions save through the same REST surface the page uses,
	// authenticated as the connecting user.
	saverFor := func(token string) editor.Saver {
		client := api.New(baseURL)
		client.SetToken(token)
		return client
	}

	srv := server.New(server.Config{
		DB:        db.Pool,
		Pinger:    db,
		Saver:     saverFor,
		Geo:       geo,
		Metrics:   m,
		WebFS:     webFS,
		JWTSecret: jwtSecret,
		BaseURL:   baseURL,
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if store != nil {
		export.StartExportWorker(workerCtx, db.Pool, store, m, getEnvDuration("EXPORT_INTERVAL", time.Minute))
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("cuetube listening on :%s", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-shutdownCh
	log.Println("shutting down...")

	if rt := srv.Realtime(); rt != nil {
		rt.CloseAll()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}
	log.Println("shutdown complete")
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
