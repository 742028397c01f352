package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"

	"github.com/gcpanel/gcpanel-backend/internal/integrations/domain"
)

// RecordRepository persists normalized imported records. When the database
// is unreachable, records are buffered in memory and drained on the next
// successful write, so a flaky database does not lose a sync's work.
type RecordRepository struct {
	db *sql.DB

	mu       sync.Mutex
	buffered []domain.Record
}

// NewRecordRepository creates a new RecordRepository
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// UpsertBatch stores records keyed on (source, external_id). It returns the
// number of rows written and whether the batch fell back to the in-memory
// buffer instead of the database.
func (r *RecordRepository) UpsertBatch(ctx context.Context, records []domain.Record) (int, bool, error) {
	r.mu.Lock()
	pending := append(r.buffered, records...)
	r.buffered = nil
	r.mu.Unlock()

	if len(pending) == 0 {
		return 0, false, nil
	}

	n, err := r.writeBatch(ctx, pending)
	if err != nil {
		// Keep everything for the next attempt. Another batch may have
		// failed and re-buffered while we held the write, so merge rather
		// than replace.
		r.mu.Lock()
		r.buffered = mergeRecords(r.buffered, pending)
		waiting := len(r.buffered)
		r.mu.Unlock()
		log.Printf("[integrations] database unavailable, %d records buffered in memory: %v", waiting, err)
		return len(records), true, nil
	}
	return n, false, nil
}

// mergeRecords appends incoming onto buffered, replacing any record already
// waiting under the same (source, external_id) so repeated failures do not
// duplicate entries.
func mergeRecords(buffered, incoming []domain.Record) []domain.Record {
	idx := make(map[string]int, len(buffered))
	for i, rec := range buffered {
		idx[rec.Source+"\x00"+rec.ExternalID] = i
	}
	for _, rec := range incoming {
		key := rec.Source + "\x00" + rec.ExternalID
		if i, ok := idx[key]; ok {
			buffered[i] = rec
			continue
		}
		idx[key] = len(buffered)
		buffered = append(buffered, rec)
	}
	return buffered
}

func (r *RecordRepository) writeBatch(ctx context.Context, records []domain.Record) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO imported_records (source, external_id, kind, project_ref, payload, fetched_at)
		VALUES ($1, $2, $3, NULLIF($4,''), $5, $6)
		ON CONFLICT (source, external_id) DO UPDATE SET
			kind = excluded.kind,
			project_ref = excluded.project_ref,
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx, rec.Source, rec.ExternalID, rec.Kind,
			rec.ProjectRef, []byte(rec.Payload), rec.FetchedAt)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert record %s/%s: %w", rec.Source, rec.ExternalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(records), nil
}

// BufferedCount reports how many records are waiting in the fallback buffer.
func (r *RecordRepository) BufferedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffered)
}

// ListFilter narrows List results.
type ListFilter struct {
	Source string
	Kind   string
	Limit  int
}

// List returns imported records, newest first.
func (r *RecordRepository) List(ctx context.Context, f ListFilter) ([]domain.Record, error) {
	query := `
		SELECT source, external_id, kind, coalesce(project_ref,''), payload, fetched_at
		FROM imported_records WHERE true`
	args := []any{}

	if f.Source != "" {
		args = append(args, f.Source)
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	if f.Kind != "" {
		args = append(args, f.Kind)
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	query += " ORDER BY fetched_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Record, 0, 32)
	for rows.Next() {
		var rec domain.Record
		var payload []byte
		if err := rows.Scan(&rec.Source, &rec.ExternalID, &rec.Kind, &rec.ProjectRef, &payload, &rec.FetchedAt); err != nil {
			return nil, err
		}
		rec.Payload = payload
		out = append(out, rec)
	}
	return out, rows.Err()
}
