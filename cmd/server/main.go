package main

import (
	"context"
	"log"

	"github.com/classlens/engagement-backend-go/internal/api"
	"github.com/classlens/engagement-backend-go/internal/config"
	"github.com/classlens/engagement-backend-go/internal/database"
	"github.com/classlens/engagement-backend-go/internal/inference"
	"github.com/classlens/engagement-backend-go/internal/pipeline"
	"github.com/classlens/engagement-backend-go/internal/repository"
	"github.com/classlens/engagement-backend-go/internal/service"
	"github.com/classlens/engagement-backend-go/internal/storage"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}
	defer db.Close()

	jobRepo := repository.NewJobRepository(db)
	verdictRepo := repository.NewVerdictRepository(db)

	// Jobs orphaned in a non-terminal state by a previous run can never
	// finish; fail them before accepting traffic.
	if n, err := jobRepo.FailStale("interrupted by server restart"); err != nil {
		log.Fatal("Failed to sweep stale jobs: ", err)
	} else if n > 0 {
		log.Printf("Failed %d stale job(s) from a previous run", n)
	}

	blobs, err := storage.NewDiskStore(cfg.BlobDir)
	if err != nil {
		log.Fatal("Failed to initialize blob store: ", err)
	}
	signer := storage.NewURLSigner(cfg.JWTSecret, cfg.SignedURLTTL)

	// One-time engine load; requests before this completes would fail
	// with not-ready, so load first.
	engine := inference.NewCommandEngine(cfg.PipelineCmd, cfg.PipelineArgs...)
	if err := engine.Load(context.Background()); err != nil {
		log.Fatal("Failed to load inference engine: ", err)
	}

	manager := pipeline.NewManager(engine, cfg.FFmpegBin)
	jobService := service.NewJobService(cfg, jobRepo, verdictRepo, manager, blobs)

	router := api.SetupRouter(cfg, jobService, manager, blobs, signer)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
