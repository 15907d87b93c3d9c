package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"bumpbot/internal/app"
	"bumpbot/internal/storage/ch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Starting ClickHouse testcontainer...")

	clickhouseContainer, err := clickhouse.Run(ctx,
		"clickhouse/clickhouse-server:24.3.3.102-alpine",
		clickhouse.WithUsername("default"),
		clickhouse.WithPassword("devpassword"),
		clickhouse.WithDatabase("default"),
	)
	if err != nil {
		log.Fatalf("Failed to start ClickHouse container: %v", err)
	}

	// Ensure container cleanup on exit
	defer func() {
		log.Println("Stopping ClickHouse container...")
		if err := clickhouseContainer.Terminate(context.Background()); err != nil {
			log.Printf("Failed to terminate container: %v", err)
		}
	}()

	host, err := clickhouseContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}

	port, err := clickhouseContainer.MappedPort(ctx, "9000/tcp")
	if err != nil {
		log.Fatalf("Failed to get container port: %v", err)
	}

	log.Printf("ClickHouse started at %s:%s", host, port.Port())

	if err := ch.Migrate(ctx, host, port.Int(), "default", "default", "devpassword", false); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	// Point the application at the container
	os.Setenv("STORAGE_DRIVER", "clickhouse")
	os.Setenv("CLICKHOUSE_HOST", host)
	os.Setenv("CLICKHOUSE_PORT", port.Port())
	os.Setenv("CLICKHOUSE_DATABASE", "default")
	os.Setenv("CLICKHOUSE_USER", "default")
	os.Setenv("CLICKHOUSE_PASSWORD", "devpassword")
	os.Setenv("CLICKHOUSE_USE_TLS", "false")
	os.Setenv("WEBHOOK_MODE", "false")
	if os.Getenv("LOG_FORMAT") == "" {
		os.Setenv("LOG_FORMAT", "console")
	}

	if os.Getenv("TELEGRAM_BOT_TOKEN") == "" {
		log.Println("⚠️  TELEGRAM_BOT_TOKEN not set. Please set it in your .env file or environment.")
	}
	if os.Getenv("FORUM_TOKEN") == "" {
		log.Println("⚠️  FORUM_TOKEN not set. Bumps will be rejected by the forum.")
	}

	log.Println("Starting application with ClickHouse backend...")
	fmt.Println()

	application, err := app.New()
	if err != nil {
		log.Printf("Failed to create application: %v", err)
		return
	}

	if err := application.RunContext(ctx); err != nil {
		log.Printf("Application error: %v", err)
	}
}
