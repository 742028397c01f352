package main

import (
	"context"
	"log"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/gcpanel/gcpanel-backend/config"
	"github.com/gcpanel/gcpanel-backend/internal/auth"
	"github.com/gcpanel/gcpanel-backend/internal/bootstrap"
	docstorage "github.com/gcpanel/gcpanel-backend/internal/documents/storage"
	"github.com/gcpanel/gcpanel-backend/internal/integrations/connectors"
	"github.com/gcpanel/gcpanel-backend/internal/storage/postgres"
)

const serviceName = "gcpanel-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		log.Fatalf("failed to open database pool: %v", err)
	}
	defer pool.Close()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := bootstrap.RunMigrations(db, cfg.Database.MigrationsDir); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	var authClient *fbauth.Client
	if !cfg.Auth.Disabled {
		authClient, err = auth.InitializeFirebase(&cfg.Auth)
		if err != nil {
			log.Fatalf("failed to initialize firebase: %v", err)
		}
	} else {
		log.Println("auth disabled: requests identify via X-User-Id header")
	}

	var blobs docstorage.BlobStore
	if cfg.Storage.S3Bucket != "" {
		blobs, err = docstorage.NewS3Store(ctx, cfg.Storage)
		if err != nil {
			log.Fatalf("failed to initialize s3 storage: %v", err)
		}
	} else {
		log.Println("S3_BUCKET not set: document upload/download URLs disabled")
	}

	conns := buildConnectors(cfg)

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		Cfg:         cfg,
		Pool:        pool,
		DB:          db,
		Redis:       rdb,
		Blobs:       blobs,
		AuthClient:  authClient,
		Connectors:  conns,
	})

	addr := ":" + cfg.Server.Port
	log.Printf("%s %s listening on %s", serviceName, cfg.App.Version, addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func buildConnectors(cfg *config.Config) []connectors.Connector {
	fc := connectors.DefaultFetchConfig()
	return []connectors.Connector{
		connectors.NewProcore(cfg.Connectors, fc),
		connectors.NewPlanGrid(cfg.Connectors, fc),
		connectors.NewFieldwire(cfg.Connectors, fc),
		connectors.NewBuildingConnected(cfg.Connectors, fc),
	}
}
