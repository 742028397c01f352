package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/gcpanel/gcpanel-backend/internal/bim/detect"
	"github.com/gcpanel/gcpanel-backend/internal/bim/domain"
	"github.com/gcpanel/gcpanel-backend/internal/bim/repository"
)

// ClashService coordinates element imports and clash detection runs.
type ClashService struct {
	elements *repository.ElementRepository
	clashes  *repository.ClashRepository
	engine   *detect.Engine
}

func NewClashService(elements *repository.ElementRepository, clashes *repository.ClashRepository, engine *detect.Engine) *ClashService {
	if engine == nil {
		engine = detect.NewEngine(nil)
	}
	return &ClashService{elements: elements, clashes: clashes, engine: engine}
}

// ImportElements validates and stores a batch of model elements.
func (s *ClashService) ImportElements(ctx context.Context, projectID string, elements []domain.Element) (int, error) {
	for i := range elements {
		elements[i].ProjectID = projectID
		if elements[i].ModelID == "" {
			return 0, fmt.Errorf("element %d: model_id required", i)
		}
		if !domain.ValidCategory(elements[i].Category) {
			return 0, fmt.Errorf("element %s: %w", elements[i].ModelID, domain.ErrInvalidCategory)
		}
		if !elements[i].BBox.Valid() {
			return 0, fmt.Errorf("element %s: %w", elements[i].ModelID, domain.ErrInvalidBBox)
		}
	}

	if err := s.elements.InsertBatch(ctx, elements); err != nil {
		return 0, err
	}
	return len(elements), nil
}

// ListElements returns stored elements for a project.
func (s *ClashService) ListElements(ctx context.Context, projectID, category string) ([]domain.Element, error) {
	if category != "" && !domain.ValidCategory(category) {
		return nil, domain.ErrInvalidCategory
	}
	return s.elements.ListByProject(ctx, projectID, category)
}

// RunSummary reports the outcome of one detection run.
type RunSummary struct {
	RunID      string         `json:"run_id"`
	Elements   int            `json:"elements"`
	Found      int            `json:"clashes_found"`
	Resolved   int            `json:"clashes_resolved"`
	BySeverity map[string]int `json:"by_severity"`
	Duration   time.Duration  `json:"-"`
	DurationMs int64          `json:"duration_ms"`
}

// RunClashDetection loads the project's elements, runs the engine and
// persists the results as the project's current clash set.
func (s *ClashService) RunClashDetection(ctx context.Context, projectID string) (*RunSummary, error) {
	start := time.Now()

	elements, err := s.elements.ListByProject(ctx, projectID, "")
	if err != nil {
		return nil, err
	}

	results, err := s.engine.Run(elements)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	clashes := make([]domain.Clash, 0, len(results))
	bySeverity := map[string]int{}
	for _, res := range results {
		bySeverity[res.Severity]++
		clashes = append(clashes, domain.Clash{
			ProjectID: projectID,
			ElementA:  res.ElementA,
			ElementB:  res.ElementB,
			Kind:      res.Kind,
			Distance:  res.Distance,
			Severity:  res.Severity,
			Location:  res.Location,
		})
	}

	found, resolved, err := s.clashes.RecordRun(ctx, projectID, runID, clashes)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	log.Printf("[bim] clash run project=%s elements=%d found=%d resolved=%d took=%s",
		projectID, len(elements), found, resolved, elapsed)

	return &RunSummary{
		RunID:      runID,
		Elements:   len(elements),
		Found:      found,
		Resolved:   resolved,
		BySeverity: bySeverity,
		Duration:   elapsed,
		DurationMs: elapsed.Milliseconds(),
	}, nil
}

// ListClashes returns the clash history for a project.
func (s *ClashService) ListClashes(ctx context.Context, projectID, status, kind string) ([]domain.Clash, error) {
	if status != "" && !domain.ValidClashStatus(status) {
		return nil, domain.ErrInvalidStatus
	}
	return s.clashes.ListByProject(ctx, projectID, repository.ListFilter{Status: status, Kind: kind})
}

// UpdateClashStatus moves a clash between open/reviewed/resolved.
func (s *ClashService) UpdateClashStatus(ctx context.Context, id, status string) (*domain.Clash, error) {
	if !domain.ValidClashStatus(status) {
		return nil, domain.ErrInvalidStatus
	}
	return s.clashes.UpdateStatus(ctx, id, status)
}

// OpenClashCounts returns open clash counts per severity.
func (s *ClashService) OpenClashCounts(ctx context.Context, projectID string) (map[string]int, error) {
	return s.clashes.CountOpen(ctx, projectID)
}
