package cronjob

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gcpanel/gcpanel-backend/internal/integrations/service"
)

// schedulerUser owns runs created by the nightly job.
const schedulerUser = "scheduler"

type Scheduler struct {
	sync *service.SyncService
}

func NewScheduler(sync *service.SyncService) *Scheduler {
	return &Scheduler{sync: sync}
}

// Start initializes cron tasks
func (s *Scheduler) Start() {
	c := cron.New(cron.WithSeconds())

	//  (2:00 AM)
	_, err := c.AddFunc("0 0 2 * * *", func() {
		s.runNightlySync()
	})

	if err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return
	}

	log.Println("Cron scheduler started (connector sync nightly at 2:00AM)")
	c.Start()
}

func (s *Scheduler) runNightlySync() {
	log.Println("Nightly connector sync started...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	runs, err := s.sync.SyncAll(ctx, schedulerUser)
	if err != nil {
		log.Printf("Nightly sync failed: %v", err)
		return
	}
	for _, run := range runs {
		log.Printf("  %s: %s (fetched=%d imported=%d)", run.Connector, run.Status, run.Fetched, run.Imported)
	}

	log.Println("Nightly connector sync completed at:", time.Now().Format(time.RFC1123))
}
