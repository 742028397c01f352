package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/gcpanel/gcpanel-backend/internal/rfis/domain"
)

// RFIRepository provides persistence operations for RFIs
type RFIRepository struct {
	db *sql.DB
}

// NewRFIRepository creates a new RFI repository
func NewRFIRepository(db *sql.DB) *RFIRepository {
	return &RFIRepository{db: db}
}

const rfiCols = `
id, project_id, number, subject, question, coalesce(answer, ''), status, priority,
coalesce(discipline, ''), submitted_by, coalesce(assigned_to, ''), due_date,
submitted_at, answered_at`

func scanRFI(row interface{ Scan(...any) error }) (*domain.RFI, error) {
	var r domain.RFI
	err := row.Scan(&r.ID, &r.ProjectID, &r.Number, &r.Subject, &r.Question, &r.Answer,
		&r.Status, &r.Priority, &r.Discipline, &r.SubmittedBy, &r.AssignedTo,
		&r.DueDate, &r.SubmittedAt, &r.AnsweredAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a new RFI, assigning the next sequential number for the
// project inside a transaction. The per-project counter row is locked so two
// concurrent creates cannot take the same number.
func (r *RFIRepository) Create(ctx context.Context, rfi *domain.RFI) (*domain.RFI, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO rfi_counters (project_id, next_seq)
		VALUES ($1, 2)
		ON CONFLICT (project_id)
		DO UPDATE SET next_seq = rfi_counters.next_seq + 1
		RETURNING next_seq - 1
	`, rfi.ProjectID).Scan(&seq)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate rfi number: %w", err)
	}

	if rfi.ID == "" {
		rfi.ID = uuid.New().String()
	}
	rfi.Number = fmt.Sprintf("RFI-%03d", seq)
	rfi.Status = domain.StatusOpen

	created, err := scanRFI(tx.QueryRowContext(ctx, `
		INSERT INTO rfis (
			id, project_id, number, subject, question, status, priority,
			discipline, submitted_by, assigned_to, due_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8,''), $9, NULLIF($10,''), $11)
		RETURNING `+rfiCols, rfi.ID, rfi.ProjectID, rfi.Number, rfi.Subject, rfi.Question,
		rfi.Status, rfi.Priority, rfi.Discipline, rfi.SubmittedBy, rfi.AssignedTo, rfi.DueDate))
	if err != nil {
		return nil, fmt.Errorf("failed to insert rfi: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

// GetByID retrieves an RFI by its ID.
func (r *RFIRepository) GetByID(ctx context.Context, id string) (*domain.RFI, error) {
	rfi, err := scanRFI(r.db.QueryRowContext(ctx, `
		SELECT `+rfiCols+` FROM rfis WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get rfi: %w", err)
	}
	return rfi, nil
}

// ListFilter narrows ListByProject results.
type ListFilter struct {
	Status   string
	Priority string
}

// ListByProject returns RFIs for a project, newest first.
func (r *RFIRepository) ListByProject(ctx context.Context, projectID string, f ListFilter) ([]domain.RFI, error) {
	query := `SELECT ` + rfiCols + ` FROM rfis WHERE project_id = $1`
	args := []any{projectID}

	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}
	query += " ORDER BY submitted_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rfis: %w", err)
	}
	defer rows.Close()

	out := make([]domain.RFI, 0, 16)
	for rows.Next() {
		rfi, err := scanRFI(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rfi)
	}
	return out, rows.Err()
}

// UpdateStatus moves an RFI to a new status, optionally recording the answer.
// The fromStatuses guard enforces the lifecycle; a zero-row update against an
// existing RFI means the transition was not allowed.
func (r *RFIRepository) UpdateStatus(ctx context.Context, id, answer, toStatus string, fromStatuses []string) (*domain.RFI, error) {
	setAnsweredAt := ""
	if toStatus == domain.StatusAnswered {
		setAnsweredAt = ", answered_at = now()"
	}

	query := fmt.Sprintf(`
		UPDATE rfis
		SET status = $2, answer = COALESCE(NULLIF($3,''), answer)%s
		WHERE id = $1 AND status = ANY($4)
		RETURNING %s`, setAnsweredAt, rfiCols)

	rfi, err := scanRFI(r.db.QueryRowContext(ctx, query, id, toStatus, answer, pq.Array(fromStatuses)))
	if err == nil {
		return rfi, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to update rfi status: %w", err)
	}

	// Distinguish "missing" from "transition not allowed".
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, domain.ErrInvalidTransition
}

// AssignTo sets the assignee on an open RFI.
func (r *RFIRepository) AssignTo(ctx context.Context, id, assignee string) (*domain.RFI, error) {
	rfi, err := scanRFI(r.db.QueryRowContext(ctx, `
		UPDATE rfis SET assigned_to = NULLIF($2,'')
		WHERE id = $1
		RETURNING `+rfiCols, id, assignee))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to assign rfi: %w", err)
	}
	return rfi, nil
}

// CountByStatus returns the number of RFIs per status for a project.
// OpenSubmittedTimes returns the submission times of a project's open RFIs,
// for age-distribution rollups.
func (r *RFIRepository) OpenSubmittedTimes(ctx context.Context, projectID string) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT submitted_at FROM rfis WHERE project_id = $1 AND status = 'open'
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query open rfis: %w", err)
	}
	defer rows.Close()

	out := make([]time.Time, 0, 16)
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *RFIRepository) CountByStatus(ctx context.Context, projectID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM rfis WHERE project_id = $1 GROUP BY status
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count rfis: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
