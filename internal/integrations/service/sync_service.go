package service

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gcpanel/gcpanel-backend/internal/integrations/connectors"
	"github.com/gcpanel/gcpanel-backend/internal/integrations/domain"
	"github.com/gcpanel/gcpanel-backend/internal/integrations/repository"
)

// initialSyncWindow bounds the first pull from a connector that has never
// completed a run.
const initialSyncWindow = 90 * 24 * time.Hour

// SyncService orchestrates connector pulls: one run per connector, tracked
// in Redis from pending to completed or failed.
type SyncService struct {
	runs       *repository.RunRepository
	importer   *ImportService
	connectors map[string]connectors.Connector
}

// NewSyncService creates a new SyncService
func NewSyncService(runs *repository.RunRepository, importer *ImportService, conns []connectors.Connector) *SyncService {
	byName := make(map[string]connectors.Connector, len(conns))
	for _, c := range conns {
		byName[c.Name()] = c
	}
	return &SyncService{runs: runs, importer: importer, connectors: byName}
}

// ConnectorStatus describes one registered connector for the API.
type ConnectorStatus struct {
	Name       string     `json:"name"`
	Enabled    bool       `json:"enabled"`
	LastSynced *time.Time `json:"last_synced,omitempty"`
}

// Connectors lists registered connectors in stable order.
func (s *SyncService) Connectors(ctx context.Context) []ConnectorStatus {
	out := make([]ConnectorStatus, 0, len(s.connectors))
	for name, c := range s.connectors {
		st := ConnectorStatus{Name: name, Enabled: c.Enabled()}
		if last, err := s.runs.LatestCompleted(ctx, name); err == nil {
			st.LastSynced = last.CompletedAt
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// StartSync creates a pending run for the named connector and executes it
// synchronously. Callers wanting fire-and-forget run it in a goroutine with
// their own context.
func (s *SyncService) StartSync(ctx context.Context, userID, connector string) (*domain.SyncRun, error) {
	conn, ok := s.connectors[connector]
	if !ok {
		return nil, domain.ErrUnknownConnector
	}
	if !conn.Enabled() {
		return nil, domain.ErrConnectorDisabled
	}

	now := time.Now().UTC()
	run := &domain.SyncRun{
		RunID:     uuid.NewString(),
		UserID:    userID,
		Connector: connector,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, err
	}

	s.execute(ctx, run, conn)
	return run, nil
}

// SyncAll runs every enabled connector concurrently and returns the runs in
// connector-name order. Individual connector failures are recorded on their
// runs, not returned as errors.
func (s *SyncService) SyncAll(ctx context.Context, userID string) ([]*domain.SyncRun, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	results := make(chan *domain.SyncRun, len(s.connectors))
	for name, conn := range s.connectors {
		if !conn.Enabled() {
			continue
		}
		name := name
		g.Go(func() error {
			run, err := s.StartSync(gctx, userID, name)
			if err != nil {
				log.Printf("[integrations] failed to start %s sync: %v", name, err)
				return nil
			}
			results <- run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(results)

	runs := make([]*domain.SyncRun, 0, len(s.connectors))
	for run := range results {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Connector < runs[j].Connector })
	return runs, nil
}

// execute drives one run through its lifecycle, updating Redis as it goes.
func (s *SyncService) execute(ctx context.Context, run *domain.SyncRun, conn connectors.Connector) {
	run.Status = domain.StatusRunning
	run.UpdatedAt = time.Now().UTC()
	if err := s.runs.Update(ctx, run); err != nil {
		log.Printf("[integrations] failed to mark run %s running: %v", run.RunID, err)
	}

	since := time.Now().UTC().Add(-initialSyncWindow)
	if last, err := s.runs.LatestCompleted(ctx, run.Connector); err == nil && last.CompletedAt != nil {
		since = *last.CompletedAt
	}

	payloads, err := conn.Fetch(ctx, since)
	if err != nil {
		s.finish(ctx, run, domain.StatusFailed, err.Error())
		return
	}
	run.Fetched = len(payloads)

	result, err := s.importer.Import(ctx, run.Connector, payloads)
	if err != nil {
		s.finish(ctx, run, domain.StatusFailed, err.Error())
		return
	}
	run.Imported = result.Stored
	if result.Buffered {
		log.Printf("[integrations] %s run %s: %d records buffered pending database recovery",
			run.Connector, run.RunID, result.Normalized)
	}

	s.finish(ctx, run, domain.StatusCompleted, "")
	log.Printf("[integrations] %s sync %s completed: fetched=%d imported=%d",
		run.Connector, run.RunID, run.Fetched, run.Imported)
}

func (s *SyncService) finish(ctx context.Context, run *domain.SyncRun, status, errMsg string) {
	now := time.Now().UTC()
	run.Status = status
	run.Error = errMsg
	run.UpdatedAt = now
	run.CompletedAt = &now
	if err := s.runs.Update(ctx, run); err != nil {
		log.Printf("[integrations] failed to finish run %s: %v", run.RunID, err)
	}
}

// GetRun returns one run by ID.
func (s *SyncService) GetRun(ctx context.Context, runID string) (*domain.SyncRun, error) {
	return s.runs.GetByRunID(ctx, runID)
}

// ListRuns returns the caller's runs, newest first.
func (s *SyncService) ListRuns(ctx context.Context, userID string) ([]*domain.SyncRun, error) {
	ids, err := s.runs.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	runs := make([]*domain.SyncRun, 0, len(ids))
	for _, id := range ids {
		run, err := s.runs.GetByRunID(ctx, id)
		if err != nil {
			continue // expired runs linger in the set until cleanup
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	return runs, nil
}
