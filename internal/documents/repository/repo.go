package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gcpanel/gcpanel-backend/internal/documents/domain"
)

// DocumentRepository provides persistence operations for document metadata
type DocumentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const docCols = `
id, project_id, title, category, coalesce(discipline,''), revision,
coalesce(supersedes_id::text,''), storage_key, content_type, size_bytes,
uploaded_by, status, created_at`

func scanDoc(row interface{ Scan(...any) error }) (*domain.Document, error) {
	var d domain.Document
	err := row.Scan(&d.ID, &d.ProjectID, &d.Title, &d.Category, &d.Discipline,
		&d.Revision, &d.SupersedesID, &d.StorageKey, &d.ContentType, &d.SizeBytes,
		&d.UploadedBy, &d.Status, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Insert stores a new revision-1 document record.
func (r *DocumentRepository) Insert(ctx context.Context, d *domain.Document) (*domain.Document, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	doc, err := scanDoc(r.db.QueryRowContext(ctx, `
		INSERT INTO documents (
			id, project_id, title, category, discipline, revision,
			storage_key, content_type, size_bytes, uploaded_by, status
		)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), 1, $6, $7, $8, $9, 'current')
		RETURNING `+docCols,
		d.ID, d.ProjectID, d.Title, d.Category, d.Discipline,
		d.StorageKey, d.ContentType, d.SizeBytes, d.UploadedBy))
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}
	return doc, nil
}

// Revise inserts a new revision of an existing current document and marks the
// prior one superseded, in a single transaction.
func (r *DocumentRepository) Revise(ctx context.Context, priorID string, d *domain.Document) (*domain.Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	prior, err := scanDoc(tx.QueryRowContext(ctx, `
		UPDATE documents SET status = 'superseded'
		WHERE id = $1 AND status = 'current'
		RETURNING `+docCols, priorID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Missing entirely, or exists but not current.
			var exists bool
			if qerr := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM documents WHERE id = $1)`, priorID).Scan(&exists); qerr == nil && exists {
				return nil, domain.ErrNotCurrent
			}
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to supersede document: %w", err)
	}

	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	doc, err := scanDoc(tx.QueryRowContext(ctx, `
		INSERT INTO documents (
			id, project_id, title, category, discipline, revision, supersedes_id,
			storage_key, content_type, size_bytes, uploaded_by, status
		)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), $6, $7, $8, $9, $10, $11, 'current')
		RETURNING `+docCols,
		d.ID, prior.ProjectID, prior.Title, prior.Category, prior.Discipline,
		prior.Revision+1, prior.ID, d.StorageKey, d.ContentType, d.SizeBytes, d.UploadedBy))
	if err != nil {
		return nil, fmt.Errorf("failed to insert revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return doc, nil
}

// GetByID retrieves a document record.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := scanDoc(r.db.QueryRowContext(ctx, `
		SELECT `+docCols+` FROM documents WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// ListFilter narrows ListByProject results.
type ListFilter struct {
	Category    string
	Status      string
	CurrentOnly bool
}

// ListByProject returns document records for a project, newest first.
func (r *DocumentRepository) ListByProject(ctx context.Context, projectID string, f ListFilter) ([]domain.Document, error) {
	query := `SELECT ` + docCols + ` FROM documents WHERE project_id = $1`
	args := []any{projectID}

	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	} else if f.CurrentOnly {
		query += " AND status = 'current'"
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Document, 0, 16)
	for rows.Next() {
		doc, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, rows.Err()
}

// Archive marks a document archived.
func (r *DocumentRepository) Archive(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := scanDoc(r.db.QueryRowContext(ctx, `
		UPDATE documents SET status = 'archived'
		WHERE id = $1 AND status <> 'archived'
		RETURNING `+docCols, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to archive document: %w", err)
	}
	return doc, nil
}

// CountByCategory returns current-document counts per category for a project.
func (r *DocumentRepository) CountByCategory(ctx context.Context, projectID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, COUNT(*) FROM documents
		WHERE project_id = $1 AND status = 'current'
		GROUP BY category`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		out[cat] = n
	}
	return out, rows.Err()
}
