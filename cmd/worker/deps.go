package main

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gcpanel/gcpanel-backend/config"
	"github.com/gcpanel/gcpanel-backend/internal/bootstrap"
	"github.com/gcpanel/gcpanel-backend/internal/integrations/connectors"
	intrepo "github.com/gcpanel/gcpanel-backend/internal/integrations/repository"
	intsvc "github.com/gcpanel/gcpanel-backend/internal/integrations/service"
	"github.com/gcpanel/gcpanel-backend/internal/storage/postgres"
)

// syncDeps wires everything a connector sync needs outside the API process.
func syncDeps(ctx context.Context, cfg *config.Config) (*intsvc.SyncService, func()) {
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	fc := connectors.DefaultFetchConfig()
	conns := []connectors.Connector{
		connectors.NewProcore(cfg.Connectors, fc),
		connectors.NewPlanGrid(cfg.Connectors, fc),
		connectors.NewFieldwire(cfg.Connectors, fc),
		connectors.NewBuildingConnected(cfg.Connectors, fc),
	}

	svc := intsvc.NewSyncService(
		intrepo.NewRunRepository(rdb),
		intsvc.NewImportService(intrepo.NewRecordRepository(db)),
		conns,
	)

	cleanup := func() {
		rdb.Close()
		db.Close()
	}
	return svc, cleanup
}

func openPool(ctx context.Context, cfg *config.Config) *pgxpool.Pool {
	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		log.Fatalf("failed to open database pool: %v", err)
	}
	return pool
}
