package main

import (
	"context"
	"log"

	"github.com/gcpanel/gcpanel-backend/config"
	cronjob "github.com/gcpanel/gcpanel-backend/internal/integrations/cron"
)

// RunSched starts the nightly connector sync scheduler and blocks.
func RunSched() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	svc, cleanup := syncDeps(context.Background(), cfg)
	defer cleanup()

	cronjob.NewScheduler(svc).Start()
	select {}
}
