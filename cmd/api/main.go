package main

import (
	"context"
	"log"

	"github.com/cozyplate/backend/config"
	"github.com/cozyplate/backend/internal/api"
	"github.com/cozyplate/backend/internal/database"
	"github.com/cozyplate/backend/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.RunMigrations(db, "migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	rdb, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Printf("Warning: Redis unavailable, rate limiting and sign-in codes disabled: %v", err)
		rdb = nil
	}

	var s3Config *config.S3Config
	if cfg.S3Bucket != "" {
		s3Config, err = config.NewS3Config(context.Background(), cfg)
		if err != nil {
			log.Fatalf("Failed to initialize object storage: %v", err)
		}
	} else {
		log.Printf("Warning: S3_BUCKET_NAME not set, image generation disabled")
	}

	svcs := api.NewServices(db, rdb, cfg, s3Config)

	srv := server.New(cfg, svcs, rdb)
	if err := srv.Start(cfg.ServerHost + ":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
