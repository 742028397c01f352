package main

import (
	"context"
	"log"
	"time"

	"github.com/gcpanel/gcpanel-backend/config"
)

// RunSync pulls from one connector ("sync procore") or all of them
// ("sync all").
func RunSync(args []string) {
	if len(args) < 1 {
		log.Fatal("usage: worker sync <connector>|all")
	}
	target := args[0]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	svc, cleanup := syncDeps(ctx, cfg)
	defer cleanup()

	if target == "all" {
		runs, err := svc.SyncAll(ctx, "worker")
		if err != nil {
			log.Fatalf("sync failed: %v", err)
		}
		for _, run := range runs {
			log.Printf("%s: %s (fetched=%d imported=%d)", run.Connector, run.Status, run.Fetched, run.Imported)
		}
		return
	}

	run, err := svc.StartSync(ctx, "worker", target)
	if err != nil {
		log.Fatalf("sync %s failed: %v", target, err)
	}
	log.Printf("%s: %s (fetched=%d imported=%d)", run.Connector, run.Status, run.Fetched, run.Imported)
	if run.Error != "" {
		log.Printf("run error: %s", run.Error)
	}
}
