package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drewb10/barbuddy/internal/aggregate"
	"github.com/drewb10/barbuddy/internal/backup"
	"github.com/drewb10/barbuddy/internal/database"
	"github.com/drewb10/barbuddy/internal/logging"
	"github.com/drewb10/barbuddy/internal/server"
)

func main() {
	port := os.Getenv("BARBUDDY_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("BARBUDDY_DB_PATH")
	if dbPath == "" {
		dbPath = "barbuddy.db"
	}

	tokenSecret := os.Getenv("BARBUDDY_TOKEN_SECRET")
	if tokenSecret == "" {
		log.Fatal("BARBUDDY_TOKEN_SECRET is required")
	}

	logger := logging.Setup(os.Getenv("BARBUDDY_LOG_LEVEL"), os.Getenv("BARBUDDY_LOG_FORMAT"))

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	aggregateCfg := aggregate.Config{
		BaseURL: os.Getenv("BARBUDDY_AGGREGATE_URL"),
		APIKey:  os.Getenv("BARBUDDY_AGGREGATE_KEY"),
	}

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("BARBUDDY_S3_ENDPOINT"),
			Bucket:    os.Getenv("BARBUDDY_S3_BUCKET"),
			Region:    os.Getenv("BARBUDDY_S3_REGION"),
			AccessKey: os.Getenv("BARBUDDY_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("BARBUDDY_S3_SECRET_KEY"),
		},
		Passphrase: os.Getenv("BARBUDDY_BACKUP_PASSPHRASE"),
	}
	if v := os.Getenv("BARBUDDY_BACKUP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			backupCfg.Interval = d
		} else {
			logger.Warn("invalid backup interval, using default", "value", v)
		}
	}

	srv := server.New(db, tokenSecret, aggregateCfg, backupCfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.BackupManager().Run(ctx)

	// Rate limiter windows accumulate; sweep them hourly.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("BarBuddy running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
