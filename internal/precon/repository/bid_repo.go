package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gcpanel/gcpanel-backend/internal/precon/domain"
)

// BidRepository provides persistence operations for bid packages
type BidRepository struct {
	db *sql.DB
}

// NewBidRepository creates a new bid package repository
func NewBidRepository(db *sql.DB) *BidRepository {
	return &BidRepository{db: db}
}

const pkgCols = `
id, project_id, name, csi_division, status, due_date,
coalesce(awarded_to,''), coalesce(awarded_amount, 0), created_at, updated_at`

func scanPackage(row interface{ Scan(...any) error }) (*domain.BidPackage, error) {
	var p domain.BidPackage
	err := row.Scan(&p.ID, &p.ProjectID, &p.Name, &p.CSIDivision, &p.Status, &p.DueDate,
		&p.AwardedTo, &p.AwardedAmount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Insert stores a new draft bid package.
func (r *BidRepository) Insert(ctx context.Context, p *domain.BidPackage) (*domain.BidPackage, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	pkg, err := scanPackage(r.db.QueryRowContext(ctx, `
		INSERT INTO bid_packages (id, project_id, name, csi_division, status, due_date)
		VALUES ($1, $2, $3, $4, 'draft', $5)
		RETURNING `+pkgCols,
		p.ID, p.ProjectID, p.Name, p.CSIDivision, p.DueDate))
	if err != nil {
		return nil, fmt.Errorf("failed to insert bid package: %w", err)
	}
	return pkg, nil
}

// ListByProject returns bid packages for a project.
func (r *BidRepository) ListByProject(ctx context.Context, projectID, status string) ([]domain.BidPackage, error) {
	query := `SELECT ` + pkgCols + ` FROM bid_packages WHERE project_id = $1`
	args := []any{projectID}
	if status != "" {
		args = append(args, status)
		query += " AND status = $2"
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bid packages: %w", err)
	}
	defer rows.Close()

	out := make([]domain.BidPackage, 0, 8)
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// OpenForBidding moves a draft package to bidding.
func (r *BidRepository) OpenForBidding(ctx context.Context, id string) (*domain.BidPackage, error) {
	p, err := scanPackage(r.db.QueryRowContext(ctx, `
		UPDATE bid_packages SET status = 'bidding', updated_at = now()
		WHERE id = $1 AND status = 'draft'
		RETURNING `+pkgCols, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.notFoundOrInvalid(ctx, id)
		}
		return nil, fmt.Errorf("failed to open bid package: %w", err)
	}
	return p, nil
}

// Award marks a bidding package awarded to a contractor.
func (r *BidRepository) Award(ctx context.Context, id, awardedTo string, amount float64) (*domain.BidPackage, error) {
	p, err := scanPackage(r.db.QueryRowContext(ctx, `
		UPDATE bid_packages
		SET status = 'awarded', awarded_to = $2, awarded_amount = $3, updated_at = now()
		WHERE id = $1 AND status = 'bidding'
		RETURNING `+pkgCols, id, awardedTo, amount))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.notFoundOrInvalid(ctx, id)
		}
		return nil, fmt.Errorf("failed to award bid package: %w", err)
	}
	return p, nil
}

func (r *BidRepository) notFoundOrInvalid(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bid_packages WHERE id = $1)`, id).Scan(&exists); err == nil && exists {
		return domain.ErrInvalidAward
	}
	return domain.ErrPackageNotFound
}
