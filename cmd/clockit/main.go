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

	"github.com/clockit-hq/clockit/internal/database"
	"github.com/clockit-hq/clockit/internal/docstore"
	"github.com/clockit-hq/clockit/internal/logging"
	"github.com/clockit-hq/clockit/internal/server"
)

func main() {
	port := os.Getenv("CLOCKIT_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("CLOCKIT_DB_PATH")
	if dbPath == "" {
		dbPath = "clockit.db"
	}

	logger := logging.Setup(os.Getenv("CLOCKIT_LOG_LEVEL"))

	tzName := os.Getenv("CLOCKIT_TIMEZONE")
	if tzName == "" {
		tzName = "UTC"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Fatalf("invalid timezone %q: %v", tzName, err)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cfg := server.Config{
		BaseURL:  os.Getenv("CLOCKIT_BASE_URL"),
		Location: loc,
		Storage: docstore.Config{
			Endpoint:  os.Getenv("CLOCKIT_S3_ENDPOINT"),
			Bucket:    os.Getenv("CLOCKIT_S3_BUCKET"),
			Region:    os.Getenv("CLOCKIT_S3_REGION"),
			AccessKey: os.Getenv("CLOCKIT_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("CLOCKIT_S3_SECRET_KEY"),
		},
		VAPIDPublicKey:  os.Getenv("CLOCKIT_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("CLOCKIT_VAPID_PRIVATE_KEY"),
		PushSubscriber:  os.Getenv("CLOCKIT_VAPID_SUBSCRIBER"),
		PostmarkToken:   os.Getenv("CLOCKIT_POSTMARK_TOKEN"),
		EmailFrom:       os.Getenv("CLOCKIT_EMAIL_FROM"),
	}

	srv := server.New(db, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.PushScheduler().Start(ctx)
	defer srv.PushScheduler().Stop()

	// Periodic housekeeping: expired sessions and stale rate limit buckets.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup", "error", err)
				} else if n > 0 {
					logger.Info("expired sessions removed", "count", n)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("ClockIt running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
