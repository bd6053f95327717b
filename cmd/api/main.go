package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/bookswap-backend/internal/config"
	"github.com/shinyyama/bookswap-backend/internal/db"
	"github.com/shinyyama/bookswap-backend/internal/events"
	appmw "github.com/shinyyama/bookswap-backend/internal/middleware"
	"github.com/shinyyama/bookswap-backend/internal/receipt"
	"github.com/shinyyama/bookswap-backend/internal/server"
	"google.golang.org/api/option"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found (ok in prod)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	ctx := context.Background()

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("auto migrate error: %v", err)
	}

	publisher, err := newPublisher(ctx, cfg.Events)
	if err != nil {
		log.Fatalf("events init error: %v", err)
	}
	defer publisher.Close()

	var archiver receipt.Archiver = receipt.NewNopArchiver()
	if cfg.Receipts.Bucket != "" {
		gcs, err := receipt.NewGCSArchiver(ctx, cfg.Receipts.Bucket, option.WithUserAgent("bookswap-backend"))
		if err != nil {
			log.Fatalf("receipt archive init error: %v", err)
		}
		defer gcs.Close()
		archiver = gcs
	}

	var auth *appmw.AuthMiddleware
	if cfg.Firebase.ProjectID != "" {
		auth, err = appmw.NewAuthMiddleware(ctx, cfg.Firebase.ProjectID)
		if err != nil {
			log.Fatalf("failed to init firebase auth: %v", err)
		}
	} else if cfg.IsDevelopment() {
		log.Printf("FIREBASE_PROJECT_ID not set; trusting %s header (development only)", appmw.DevUserHeader)
		auth = appmw.NewDevAuthMiddleware()
	} else {
		log.Fatalf("FIREBASE_PROJECT_ID is required outside development")
	}

	srv, err := server.New(server.Deps{
		DB:        conn,
		Auth:      auth,
		Publisher: publisher,
		Archiver:  archiver,
		Workflow:  cfg.Workflow,
		GitSHA:    cfg.GitSHA,
		BuildTime: cfg.BuildAt,
	})
	if err != nil {
		log.Fatalf("server init error: %v", err)
	}

	addr := ":" + cfg.Port
	go func() {
		log.Printf("starting server on %s", addr)
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
	log.Printf("signal received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func newPublisher(ctx context.Context, cfg config.Events) (events.Publisher, error) {
	switch cfg.Backend {
	case "kafka":
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	case "redis":
		client, err := events.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return events.NewRedisPublisher(client, cfg.RedisChannelPrefix), nil
	}
	return events.NewNopPublisher(), nil
}
