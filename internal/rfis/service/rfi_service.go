package service

import (
	"context"
	"strings"
	"time"

	"github.com/gcpanel/gcpanel-backend/internal/rfis/domain"
	"github.com/gcpanel/gcpanel-backend/internal/rfis/repository"
)

// RFIService handles business logic for RFIs
type RFIService struct {
	repo *repository.RFIRepository
}

// NewRFIService creates a new RFIService
func NewRFIService(repo *repository.RFIRepository) *RFIService {
	return &RFIService{repo: repo}
}

// CreateRFIRequest carries the fields needed to open a new RFI.
type CreateRFIRequest struct {
	ProjectID   string
	Subject     string
	Question    string
	Priority    string
	Discipline  string
	SubmittedBy string
	AssignedTo  string
	DueDate     *time.Time
}

// Create opens a new RFI. Priority defaults to medium.
func (s *RFIService) Create(ctx context.Context, req CreateRFIRequest) (*domain.RFI, error) {
	if req.Priority == "" {
		req.Priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(req.Priority) {
		return nil, domain.ErrInvalidPriority
	}

	rfi := &domain.RFI{
		ProjectID:   req.ProjectID,
		Subject:     strings.TrimSpace(req.Subject),
		Question:    strings.TrimSpace(req.Question),
		Priority:    req.Priority,
		Discipline:  strings.TrimSpace(req.Discipline),
		SubmittedBy: req.SubmittedBy,
		AssignedTo:  strings.TrimSpace(req.AssignedTo),
		DueDate:     req.DueDate,
	}
	return s.repo.Create(ctx, rfi)
}

// Get retrieves an RFI by ID.
func (s *RFIService) Get(ctx context.Context, id string) (*domain.RFI, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns RFIs for a project with optional status/priority filters.
func (s *RFIService) List(ctx context.Context, projectID, status, priority string) ([]domain.RFI, error) {
	if status != "" && !domain.ValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}
	if priority != "" && !domain.ValidPriority(priority) {
		return nil, domain.ErrInvalidPriority
	}
	return s.repo.ListByProject(ctx, projectID, repository.ListFilter{Status: status, Priority: priority})
}

// Answer records an answer on an open RFI and moves it to answered.
func (s *RFIService) Answer(ctx context.Context, id, answer string) (*domain.RFI, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, domain.ErrInvalidTransition
	}
	return s.repo.UpdateStatus(ctx, id, answer, domain.StatusAnswered, []string{domain.StatusOpen})
}

// Close closes an answered RFI.
func (s *RFIService) Close(ctx context.Context, id string) (*domain.RFI, error) {
	return s.repo.UpdateStatus(ctx, id, "", domain.StatusClosed, []string{domain.StatusAnswered})
}

// Reopen moves an answered or closed RFI back to open.
func (s *RFIService) Reopen(ctx context.Context, id string) (*domain.RFI, error) {
	return s.repo.UpdateStatus(ctx, id, "", domain.StatusOpen, []string{domain.StatusAnswered, domain.StatusClosed})
}

// Void voids an open RFI that should never have been submitted.
func (s *RFIService) Void(ctx context.Context, id string) (*domain.RFI, error) {
	return s.repo.UpdateStatus(ctx, id, "", domain.StatusVoid, []string{domain.StatusOpen})
}

// Assign sets the assignee on an RFI.
func (s *RFIService) Assign(ctx context.Context, id, assignee string) (*domain.RFI, error) {
	return s.repo.AssignTo(ctx, id, strings.TrimSpace(assignee))
}

// StatusCounts returns open/answered/closed/void counts for a project.
func (s *RFIService) StatusCounts(ctx context.Context, projectID string) (map[string]int, error) {
	return s.repo.CountByStatus(ctx, projectID)
}

// Aging bucket labels, keyed by whole days open.
const (
	BucketWeek      = "0-7"
	BucketFortnight = "8-14"
	BucketMonth     = "15-30"
	BucketStale     = "30+"
)

// AgingBuckets groups a project's open RFIs by how many whole days they have
// been outstanding. Every bucket is present in the result, zero or not, so
// dashboards render a stable distribution.
func (s *RFIService) AgingBuckets(ctx context.Context, projectID string) (map[string]int, error) {
	submitted, err := s.repo.OpenSubmittedTimes(ctx, projectID)
	if err != nil {
		return nil, err
	}

	buckets := map[string]int{BucketWeek: 0, BucketFortnight: 0, BucketMonth: 0, BucketStale: 0}
	now := time.Now()
	for _, t := range submitted {
		days := 0
		if d := now.Sub(t); d > 0 {
			days = int(d.Hours() / 24)
		}
		buckets[agingBucket(days)]++
	}
	return buckets, nil
}

func agingBucket(days int) string {
	switch {
	case days <= 7:
		return BucketWeek
	case days <= 14:
		return BucketFortnight
	case days <= 30:
		return BucketMonth
	default:
		return BucketStale
	}
}
