package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gcpanel/gcpanel-backend/internal/precon/domain"
)

// BudgetRepository provides persistence operations for budget line items
type BudgetRepository struct {
	db *sql.DB
}

// NewBudgetRepository creates a new budget repository
func NewBudgetRepository(db *sql.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

const lineCols = `
id, project_id, csi_division, csi_code, description,
budget_amount, committed_amount, actual_amount, created_at, updated_at`

func scanLine(row interface{ Scan(...any) error }) (*domain.BudgetLineItem, error) {
	var b domain.BudgetLineItem
	err := row.Scan(&b.ID, &b.ProjectID, &b.CSIDivision, &b.CSICode, &b.Description,
		&b.BudgetAmount, &b.CommittedAmount, &b.ActualAmount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Insert stores a new budget line.
func (r *BudgetRepository) Insert(ctx context.Context, b *domain.BudgetLineItem) (*domain.BudgetLineItem, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	line, err := scanLine(r.db.QueryRowContext(ctx, `
		INSERT INTO budget_line_items (
			id, project_id, csi_division, csi_code, description,
			budget_amount, committed_amount, actual_amount
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+lineCols,
		b.ID, b.ProjectID, b.CSIDivision, b.CSICode, b.Description,
		b.BudgetAmount, b.CommittedAmount, b.ActualAmount))
	if err != nil {
		return nil, fmt.Errorf("failed to insert budget line: %w", err)
	}
	return line, nil
}

// ListByProject returns budget lines for a project ordered by CSI code.
func (r *BudgetRepository) ListByProject(ctx context.Context, projectID, division string) ([]domain.BudgetLineItem, error) {
	query := `SELECT ` + lineCols + ` FROM budget_line_items WHERE project_id = $1`
	args := []any{projectID}
	if division != "" {
		args = append(args, division)
		query += " AND csi_division = $2"
	}
	query += " ORDER BY csi_code"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget lines: %w", err)
	}
	defer rows.Close()

	out := make([]domain.BudgetLineItem, 0, 16)
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *line)
	}
	return out, rows.Err()
}

// UpdateAmounts patches the money columns on a line.
func (r *BudgetRepository) UpdateAmounts(ctx context.Context, id string, budget, committed, actual *float64) (*domain.BudgetLineItem, error) {
	line, err := scanLine(r.db.QueryRowContext(ctx, `
		UPDATE budget_line_items
		SET budget_amount    = COALESCE($2, budget_amount),
		    committed_amount = COALESCE($3, committed_amount),
		    actual_amount    = COALESCE($4, actual_amount),
		    updated_at       = now()
		WHERE id = $1
		RETURNING `+lineCols, id, budget, committed, actual))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLineNotFound
		}
		return nil, fmt.Errorf("failed to update budget line: %w", err)
	}
	return line, nil
}

// Delete removes a budget line.
func (r *BudgetRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budget_line_items WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete budget line: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DivisionSummary rolls budget lines up per CSI division.
func (r *BudgetRepository) DivisionSummary(ctx context.Context, projectID string) ([]domain.DivisionSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT csi_division, COUNT(*),
		       COALESCE(SUM(budget_amount), 0),
		       COALESCE(SUM(committed_amount), 0),
		       COALESCE(SUM(actual_amount), 0)
		FROM budget_line_items
		WHERE project_id = $1
		GROUP BY csi_division
		ORDER BY csi_division
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize budget: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DivisionSummary, 0, 16)
	for rows.Next() {
		var s domain.DivisionSummary
		if err := rows.Scan(&s.CSIDivision, &s.Lines, &s.BudgetAmount, &s.CommittedAmount, &s.ActualAmount); err != nil {
			return nil, err
		}
		s.Variance = s.BudgetAmount - s.ActualAmount
		out = append(out, s)
	}
	return out, rows.Err()
}

// Totals returns project-wide budget/committed/actual sums.
func (r *BudgetRepository) Totals(ctx context.Context, projectID string) (budget, committed, actual float64, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(budget_amount), 0),
		       COALESCE(SUM(committed_amount), 0),
		       COALESCE(SUM(actual_amount), 0)
		FROM budget_line_items WHERE project_id = $1
	`, projectID).Scan(&budget, &committed, &actual)
	if err != nil {
		err = fmt.Errorf("failed to total budget: %w", err)
	}
	return
}
