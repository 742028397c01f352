package main

import (
	"context"
	"log"
	"time"

	"github.com/gcpanel/gcpanel-backend/config"
	"github.com/gcpanel/gcpanel-backend/internal/bim/detect"
	bimrepo "github.com/gcpanel/gcpanel-backend/internal/bim/repository"
	bimsvc "github.com/gcpanel/gcpanel-backend/internal/bim/service"
	"github.com/gcpanel/gcpanel-backend/internal/projects"
	"github.com/gcpanel/gcpanel-backend/internal/storage/postgres"
)

// RunClash runs clash detection for one project from the command line.
func RunClash(args []string) {
	if len(args) < 1 {
		log.Fatal("usage: worker clash <project_public_id>")
	}
	publicID := args[0]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool := openPool(ctx, cfg)
	defer pool.Close()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	projectID, err := projects.NewRepo(pool).ResolveIDAny(ctx, publicID)
	if err != nil {
		log.Fatalf("failed to resolve project %s: %v", publicID, err)
	}

	svc := bimsvc.NewClashService(
		bimrepo.NewElementRepository(db),
		bimrepo.NewClashRepository(db),
		detect.NewEngine(detect.DefaultTolerances()),
	)

	summary, err := svc.RunClashDetection(ctx, projectID)
	if err != nil {
		log.Fatalf("clash detection failed: %v", err)
	}

	log.Printf("run %s: %d elements, %d clashes found, %d resolved (%dms)",
		summary.RunID, summary.Elements, summary.Found, summary.Resolved, summary.DurationMs)
	for severity, n := range summary.BySeverity {
		log.Printf("  %s: %d", severity, n)
	}
}
