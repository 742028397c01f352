package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gcpanel/gcpanel-backend/internal/bim/domain"
)

// ClashRepository handles PostgreSQL operations for clash history
type ClashRepository struct {
	db *sql.DB
}

// NewClashRepository creates a new ClashRepository
func NewClashRepository(db *sql.DB) *ClashRepository {
	return &ClashRepository{db: db}
}

const clashCols = `
id, project_id, element_a, element_b, kind, distance, severity,
loc_x, loc_y, loc_z, status, run_id, detected_at, resolved_at`

func scanClash(row interface{ Scan(...any) error }) (*domain.Clash, error) {
	var c domain.Clash
	err := row.Scan(&c.ID, &c.ProjectID, &c.ElementA, &c.ElementB, &c.Kind, &c.Distance,
		&c.Severity, &c.Location[0], &c.Location[1], &c.Location[2],
		&c.Status, &c.RunID, &c.DetectedAt, &c.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// RecordRun persists the clashes found by one detection run in a single
// transaction:
//   - each found pair is upserted, tagged with runID; a pair whose previous
//     row was resolved comes back as open,
//   - open/reviewed clashes the run did not see again are marked resolved.
//
// Returns (found, resolved) counts.
func (r *ClashRepository) RecordRun(ctx context.Context, projectID, runID string, clashes []domain.Clash) (int, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bim_clashes (
			id, project_id, element_a, element_b, kind, distance, severity,
			loc_x, loc_y, loc_z, status, run_id, detected_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'open', $11, now())
		ON CONFLICT (project_id, element_a, element_b) DO UPDATE SET
			kind = excluded.kind, distance = excluded.distance,
			severity = excluded.severity,
			loc_x = excluded.loc_x, loc_y = excluded.loc_y, loc_z = excluded.loc_z,
			status = CASE WHEN bim_clashes.status = 'resolved' THEN 'open' ELSE bim_clashes.status END,
			resolved_at = CASE WHEN bim_clashes.status = 'resolved' THEN NULL ELSE bim_clashes.resolved_at END,
			run_id = excluded.run_id, detected_at = now()
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range clashes {
		id := c.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err = stmt.ExecContext(ctx, id, projectID, c.ElementA, c.ElementB,
			c.Kind, c.Distance, c.Severity,
			c.Location[0], c.Location[1], c.Location[2], runID)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to upsert clash %s/%s: %w", c.ElementA, c.ElementB, err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE bim_clashes
		SET status = 'resolved', resolved_at = now()
		WHERE project_id = $1 AND status <> 'resolved' AND run_id <> $2
	`, projectID, runID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to resolve stale clashes: %w", err)
	}
	resolved, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(clashes), int(resolved), nil
}

// ListFilter narrows ListByProject results.
type ListFilter struct {
	Status string
	Kind   string
}

// ListByProject returns clash history for a project, most severe first.
func (r *ClashRepository) ListByProject(ctx context.Context, projectID string, f ListFilter) ([]domain.Clash, error) {
	query := `SELECT ` + clashCols + ` FROM bim_clashes WHERE project_id = $1`
	args := []any{projectID}

	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Kind != "" {
		args = append(args, f.Kind)
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	query += `
		ORDER BY
			CASE severity WHEN 'critical' THEN 0 WHEN 'major' THEN 1 ELSE 2 END,
			element_a, element_b`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clashes: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Clash, 0, 16)
	for rows.Next() {
		c, err := scanClash(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// UpdateStatus moves a clash between open/reviewed/resolved.
func (r *ClashRepository) UpdateStatus(ctx context.Context, id, status string) (*domain.Clash, error) {
	c, err := scanClash(r.db.QueryRowContext(ctx, `
		UPDATE bim_clashes
		SET status = $2,
		    resolved_at = CASE WHEN $2 = 'resolved' THEN now() ELSE NULL END
		WHERE id = $1
		RETURNING `+clashCols, id, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrClashNotFound
		}
		return nil, fmt.Errorf("failed to update clash status: %w", err)
	}
	return c, nil
}

// CountOpen returns open clash counts per severity for a project.
func (r *ClashRepository) CountOpen(ctx context.Context, projectID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT severity, COUNT(*) FROM bim_clashes
		WHERE project_id = $1 AND status = 'open'
		GROUP BY severity`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count clashes: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var sev string
		var n int
		if err := rows.Scan(&sev, &n); err != nil {
			return nil, err
		}
		out[sev] = n
	}
	return out, rows.Err()
}
