package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/chistopro/internal/config"
	"github.com/dukerupert/chistopro/internal/database"
	"github.com/dukerupert/chistopro/internal/logging"
	"github.com/dukerupert/chistopro/internal/reminder"
	"github.com/dukerupert/chistopro/internal/server"
	"github.com/dukerupert/chistopro/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (default $CHISTOPRO_CONFIG)")
	genKeys := flag.Bool("generate-vapid-keys", false, "print a new VAPID key pair and exit")
	flag.Parse()

	if *genKeys {
		pub, priv, err := reminder.GenerateVAPIDKeys()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate VAPID keys: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("CHISTOPRO_PUSH_VAPID_PUBLIC_KEY=%s\nCHISTOPRO_PUSH_VAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(store.NewSQLiteKV(db), cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv.Start(ctx)
	go cleanupLoop(ctx, srv)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("chistopro running", "addr", "http://localhost:"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	srv.Close()
}

func cleanupLoop(ctx context.Context, srv *server.Server) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			srv.RateLimiter().Cleanup()
			slog.Debug("rate limiter cleaned")
		}
	}
}
