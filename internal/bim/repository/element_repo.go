package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gcpanel/gcpanel-backend/internal/bim/domain"
)

// ElementRepository handles PostgreSQL operations for BIM elements
type ElementRepository struct {
	db *sql.DB
}

// NewElementRepository creates a new ElementRepository
func NewElementRepository(db *sql.DB) *ElementRepository {
	return &ElementRepository{db: db}
}

// InsertBatch inserts model elements in a single transaction. Re-imported
// elements (same project and model element id) are replaced.
func (r *ElementRepository) InsertBatch(ctx context.Context, elements []domain.Element) error {
	if len(elements) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bim_elements (
			id, project_id, model_id, name, category, level, material,
			min_x, min_y, min_z, max_x, max_y, max_z
		)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), NULLIF($7,''), $8, $9, $10, $11, $12, $13)
		ON CONFLICT (project_id, model_id) DO UPDATE SET
			name = excluded.name, category = excluded.category,
			level = excluded.level, material = excluded.material,
			min_x = excluded.min_x, min_y = excluded.min_y, min_z = excluded.min_z,
			max_x = excluded.max_x, max_y = excluded.max_y, max_z = excluded.max_z
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range elements {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		_, err = stmt.ExecContext(ctx,
			e.ID, e.ProjectID, e.ModelID, e.Name, e.Category, e.Level, e.Material,
			e.BBox.Min[0], e.BBox.Min[1], e.BBox.Min[2],
			e.BBox.Max[0], e.BBox.Max[1], e.BBox.Max[2],
		)
		if err != nil {
			return fmt.Errorf("failed to insert element %s: %w", e.ModelID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const elementCols = `
id, project_id, model_id, name, category, coalesce(level,''), coalesce(material,''),
min_x, min_y, min_z, max_x, max_y, max_z, created_at`

func scanElement(row interface{ Scan(...any) error }) (*domain.Element, error) {
	var e domain.Element
	err := row.Scan(&e.ID, &e.ProjectID, &e.ModelID, &e.Name, &e.Category, &e.Level, &e.Material,
		&e.BBox.Min[0], &e.BBox.Min[1], &e.BBox.Min[2],
		&e.BBox.Max[0], &e.BBox.Max[1], &e.BBox.Max[2], &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByProject returns all elements for a project, optionally filtered by category.
func (r *ElementRepository) ListByProject(ctx context.Context, projectID, category string) ([]domain.Element, error) {
	query := `SELECT ` + elementCols + ` FROM bim_elements WHERE project_id = $1`
	args := []any{projectID}
	if category != "" {
		args = append(args, category)
		query += " AND category = $2"
	}
	query += " ORDER BY model_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list elements: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Element, 0, 64)
	for rows.Next() {
		e, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// GetByID retrieves one element.
func (r *ElementRepository) GetByID(ctx context.Context, id string) (*domain.Element, error) {
	e, err := scanElement(r.db.QueryRowContext(ctx, `
		SELECT `+elementCols+` FROM bim_elements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get element: %w", err)
	}
	return e, nil
}
