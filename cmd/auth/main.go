package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/outta-ai/outta-auth/internal/auth/app"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load(".env")

	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
