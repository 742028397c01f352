package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	bimservice "github.com/gcpanel/gcpanel-backend/internal/bim/service"
	docrepo "github.com/gcpanel/gcpanel-backend/internal/documents/repository"
	preconrepo "github.com/gcpanel/gcpanel-backend/internal/precon/repository"
	rfiservice "github.com/gcpanel/gcpanel-backend/internal/rfis/service"
)

const (
	dashboardKeyPrefix = "dash:project:" // cached snapshot: dash:project:{project_id}
	dashboardTTL       = 60 * time.Second
)

// Snapshot is the project KPI block behind the dashboard view.
type Snapshot struct {
	ProjectID       string         `json:"project_id"`
	RFIsByStatus    map[string]int `json:"rfis_by_status"`
	RFIAging        map[string]int `json:"rfi_aging"`
	OpenClashes     map[string]int `json:"open_clashes_by_severity"`
	DocsByCategory  map[string]int `json:"documents_by_category"`
	BudgetAmount    float64        `json:"budget_amount"`
	CommittedAmount float64        `json:"committed_amount"`
	ActualAmount    float64        `json:"actual_amount"`
	BudgetVariance  float64        `json:"budget_variance"`
	GeneratedAt     time.Time      `json:"generated_at"`
	Cached          bool           `json:"cached"`
}

// DashboardService aggregates per-project KPIs across the feature modules
// and caches the result in Redis for the dashboard's polling interval.
type DashboardService struct {
	rfis   *rfiservice.RFIService
	bim    *bimservice.ClashService
	docs   *docrepo.DocumentRepository
	budget *preconrepo.BudgetRepository
	cache  *redis.Client
}

func NewDashboardService(
	rfis *rfiservice.RFIService,
	bim *bimservice.ClashService,
	docs *docrepo.DocumentRepository,
	budget *preconrepo.BudgetRepository,
	cache *redis.Client,
) *DashboardService {
	return &DashboardService{rfis: rfis, bim: bim, docs: docs, budget: budget, cache: cache}
}

// Snapshot returns the KPI block for a project, from cache when fresh.
func (s *DashboardService) Snapshot(ctx context.Context, projectID string) (*Snapshot, error) {
	key := dashboardKeyPrefix + projectID

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key).Result(); err == nil {
			var snap Snapshot
			if err := json.Unmarshal([]byte(data), &snap); err == nil {
				snap.Cached = true
				return &snap, nil
			}
		}
	}

	snap, err := s.build(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			if err := s.cache.Set(ctx, key, data, dashboardTTL).Err(); err != nil {
				// Cache failures degrade to recomputation, not errors.
				log.Printf("[analytics] dashboard cache set failed: %v", err)
			}
		}
	}
	return snap, nil
}

// Invalidate drops the cached snapshot for a project.
func (s *DashboardService) Invalidate(ctx context.Context, projectID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, dashboardKeyPrefix+projectID).Err(); err != nil {
		log.Printf("[analytics] dashboard cache invalidate failed: %v", err)
	}
}

func (s *DashboardService) build(ctx context.Context, projectID string) (*Snapshot, error) {
	rfiCounts, err := s.rfis.StatusCounts(ctx, projectID)
	if err != nil {
		return nil, err
	}
	rfiAging, err := s.rfis.AgingBuckets(ctx, projectID)
	if err != nil {
		return nil, err
	}
	clashCounts, err := s.bim.OpenClashCounts(ctx, projectID)
	if err != nil {
		return nil, err
	}
	docCounts, err := s.docs.CountByCategory(ctx, projectID)
	if err != nil {
		return nil, err
	}
	budget, committed, actual, err := s.budget.Totals(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		ProjectID:       projectID,
		RFIsByStatus:    rfiCounts,
		RFIAging:        rfiAging,
		OpenClashes:     clashCounts,
		DocsByCategory:  docCounts,
		BudgetAmount:    budget,
		CommittedAmount: committed,
		ActualAmount:    actual,
		BudgetVariance:  budget - actual,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}
