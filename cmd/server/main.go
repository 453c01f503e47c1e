package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"bistro/internal/config"
	"bistro/internal/db"
	"bistro/internal/db/mock"
	applog "bistro/internal/log"
	"bistro/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if err := applog.SetLevel(cfg.LogLevel); err != nil {
		log.Printf("invalid log level %q, keeping default: %v", cfg.LogLevel, err)
	}

	database := openDatabase(cfg)

	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RecipeMaxDepth: cfg.Recipe.MaxDepth,
		Database:       database,
	})

	go func() {
		log.Printf("starting http server on %s", cfg.Server.Addr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server encountered an error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh

	log.Println("shutting down http server")
	if err := srv.Stop(); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
}

// openDatabase connects to postgres when a URL is configured and falls back
// to the seeded in-memory catalog otherwise, which keeps local development
// zero-setup.
func openDatabase(cfg config.Config) *gorm.DB {
	if strings.TrimSpace(cfg.Database.URL) != "" {
		return db.MustConfigure(cfg.Database)
	}

	log.Println("no database url configured, using in-memory mock catalog")
	database, err := mock.New(context.Background())
	if err != nil {
		log.Fatalf("failed to initialise mock database: %v", err)
	}
	return database
}
