package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/azrrael22/horse-reserved/internal/infra/app"
	"github.com/azrrael22/horse-reserved/internal/infra/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("auth service: %v", err)
	}
}

func run() error {
	// Local development reads a .env file; deployed environments set real
	// variables and the missing file is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init application: %w", err)
	}

	return application.Run(ctx)
}
