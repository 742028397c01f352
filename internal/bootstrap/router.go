package bootstrap

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gcpanel/gcpanel-backend/config"
	httpapi "github.com/gcpanel/gcpanel-backend/internal/api/http"
	apimw "github.com/gcpanel/gcpanel-backend/internal/api/http/middleware"
	"github.com/gcpanel/gcpanel-backend/internal/auth"
	authmw "github.com/gcpanel/gcpanel-backend/internal/auth/middleware"
	"github.com/gcpanel/gcpanel-backend/internal/projects"
	"github.com/gcpanel/gcpanel-backend/internal/users"

	analyticshttp "github.com/gcpanel/gcpanel-backend/internal/analytics/http"
	analyticsrepo "github.com/gcpanel/gcpanel-backend/internal/analytics/repository"
	analyticssvc "github.com/gcpanel/gcpanel-backend/internal/analytics/service"
	"github.com/gcpanel/gcpanel-backend/internal/bim/detect"
	bimhttp "github.com/gcpanel/gcpanel-backend/internal/bim/http"
	bimrepo "github.com/gcpanel/gcpanel-backend/internal/bim/repository"
	bimsvc "github.com/gcpanel/gcpanel-backend/internal/bim/service"
	dochttp "github.com/gcpanel/gcpanel-backend/internal/documents/http"
	docrepo "github.com/gcpanel/gcpanel-backend/internal/documents/repository"
	docsvc "github.com/gcpanel/gcpanel-backend/internal/documents/service"
	docstorage "github.com/gcpanel/gcpanel-backend/internal/documents/storage"
	"github.com/gcpanel/gcpanel-backend/internal/integrations/connectors"
	inthttp "github.com/gcpanel/gcpanel-backend/internal/integrations/http"
	intrepo "github.com/gcpanel/gcpanel-backend/internal/integrations/repository"
	intsvc "github.com/gcpanel/gcpanel-backend/internal/integrations/service"
	preconhttp "github.com/gcpanel/gcpanel-backend/internal/precon/http"
	preconrepo "github.com/gcpanel/gcpanel-backend/internal/precon/repository"
	rfihttp "github.com/gcpanel/gcpanel-backend/internal/rfis/http"
	rfirepo "github.com/gcpanel/gcpanel-backend/internal/rfis/repository"
	rfisvc "github.com/gcpanel/gcpanel-backend/internal/rfis/service"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Cfg         *config.Config
	Pool        *pgxpool.Pool
	DB          *sql.DB
	Redis       *redis.Client
	Blobs       docstorage.BlobStore
	// AuthClient is nil when auth is disabled (dev mode).
	AuthClient *fbauth.Client
	Connectors []connectors.Connector
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	r.Use(corsMiddleware(dep.Cfg.Server.AllowedOrigins))
	r.Use(apimw.RequestIDMiddleware())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Pool, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")

	userRepo := users.NewRepo(dep.Pool)
	projectRepo := projects.NewRepo(dep.Pool)

	if dep.AuthClient != nil {
		api.Use(authmw.FirebaseAuthMiddleware(dep.AuthClient))
	}
	api.Use(auth.WithUser(userRepo))

	projectsGroup := api.Group("/projects")
	projects.Register(projectsGroup, projectRepo)

	// resolve maps the :public_id route param to the internal project UUID,
	// answering 404 itself when the project is unknown.
	resolve := func(c *gin.Context) (string, bool) {
		id, err := projectRepo.ResolveID(c.Request.Context(), auth.UserDBID(c), c.Param("public_id"))
		if err != nil {
			if errors.Is(err, projects.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to resolve project"})
			}
			return "", false
		}
		return id, true
	}

	rfiService := rfisvc.NewRFIService(rfirepo.NewRFIRepository(dep.DB))
	rfihttp.New(rfiService).Register(projectsGroup, api, resolve)

	documentRepo := docrepo.NewDocumentRepository(dep.DB)
	urlExpiry := time.Duration(dep.Cfg.Storage.URLExpiry) * time.Second
	documentService := docsvc.NewDocumentService(documentRepo, dep.Blobs, urlExpiry)
	dochttp.New(documentService).Register(projectsGroup, api, resolve)

	clashService := bimsvc.NewClashService(
		bimrepo.NewElementRepository(dep.DB),
		bimrepo.NewClashRepository(dep.DB),
		detect.NewEngine(detect.DefaultTolerances()),
	)
	bimhttp.New(clashService).Register(projectsGroup, api, resolve)

	budgetRepo := preconrepo.NewBudgetRepository(dep.DB)
	bidRepo := preconrepo.NewBidRepository(dep.DB)
	preconhttp.New(budgetRepo, bidRepo).Register(projectsGroup, api, resolve)

	metricsRepo := analyticsrepo.NewMetricsRepository(dep.Pool)
	dashboardService := analyticssvc.NewDashboardService(
		rfiService, clashService, documentRepo, budgetRepo, dep.Redis)
	analyticshttp.New(metricsRepo, dashboardService).Register(projectsGroup, resolve)

	runRepo := intrepo.NewRunRepository(dep.Redis)
	recordRepo := intrepo.NewRecordRepository(dep.DB)
	importService := intsvc.NewImportService(recordRepo)
	syncService := intsvc.NewSyncService(runRepo, importService, dep.Connectors)
	inthttp.New(syncService, importService).Register(api)

	return r
}

func corsMiddleware(allowedOrigins string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if allowedOrigins == "" || allowedOrigins == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = strings.Split(allowedOrigins, ",")
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Request-Id", "X-User-Id")
	return cors.New(cfg)
}
