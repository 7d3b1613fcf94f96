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

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/expertguide/expertguide-api/internal/config"
	"github.com/expertguide/expertguide-api/internal/infrastructure/dynamo"
	"github.com/expertguide/expertguide-api/internal/infrastructure/events"
	jwtinfra "github.com/expertguide/expertguide-api/internal/infrastructure/jwt"
	redisinfra "github.com/expertguide/expertguide-api/internal/infrastructure/redis"
	"github.com/expertguide/expertguide-api/internal/infrastructure/smtp"
	"github.com/expertguide/expertguide-api/internal/infrastructure/sns"
	transporthttp "github.com/expertguide/expertguide-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Redis backs challenge state; unreachable Redis is fatal.
	redisClient := redisinfra.NewClient(cfg)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("redis unreachable: %v", err)
	}
	cancel()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Signing misconfiguration is unrecoverable.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("jwt provider: %v", err)
	}

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender (optional — graceful fallback).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	// Audit events go through a Redis stream; the auth flow never waits on
	// or fails because of the publisher.
	var audit events.AuditPublisher
	wmLogger := watermill.NewStdLogger(false, false)
	if publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{Client: redisClient}, wmLogger); err == nil {
		audit = events.NewWatermillPublisher(publisher, cfg.AuditTopic)
	} else {
		log.Printf("WARN: audit publisher not available: %v", err)
	}

	deps := &transporthttp.Deps{
		UserRepo:     dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		RoleRepo:     dynamo.NewRoleRepo(dynamoClient, cfg.DynamoTables.RoleMemberships),
		AttemptStore: redisinfra.NewStore(redisClient),
		Mailer:       mailer,
		SMSSender:    smsSender,
		Tokens:       jwtProvider,
		Audit:        audit,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
