package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MetricPoint is one timeseries observation for a project, e.g. daily
// workforce count, budget spend rate or open RFI count snapshots.
type MetricPoint struct {
	ID        int64             `json:"id,omitempty"`
	ProjectID string            `json:"project_id"`
	Time      time.Time         `json:"time"`
	Metric    string            `json:"metric"`
	Value     float64           `json:"value"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// MetricsRepository handles PostgreSQL operations for project metrics
type MetricsRepository struct {
	db *pgxpool.Pool
}

// NewMetricsRepository creates a new MetricsRepository
func NewMetricsRepository(db *pgxpool.Pool) *MetricsRepository {
	return &MetricsRepository{db: db}
}

// InsertBatch inserts metric points in a single transaction.
func (r *MetricsRepository) InsertBatch(ctx context.Context, points []MetricPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range points {
		if p.Time.IsZero() {
			p.Time = time.Now()
		}
		tagsJSON, err := json.Marshal(p.Tags)
		if err != nil {
			tagsJSON = []byte("{}")
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO project_metrics (project_id, time, metric, value, tags)
			VALUES ($1, $2, $3, $4, $5)
		`, p.ProjectID, p.Time, p.Metric, p.Value, tagsJSON)
		if err != nil {
			return fmt.Errorf("failed to insert metric point: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Query returns points for a project, optionally filtered by metric name and
// time range, in time order.
func (r *MetricsRepository) Query(ctx context.Context, projectID, metric string, from, to time.Time) ([]MetricPoint, error) {
	query := `
		SELECT id, project_id, time, metric, value, tags
		FROM project_metrics
		WHERE project_id = $1`
	args := []any{projectID}

	if metric != "" {
		args = append(args, metric)
		query += fmt.Sprintf(" AND metric = $%d", len(args))
	}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND time >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND time <= $%d", len(args))
	}
	query += " ORDER BY time ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	out := make([]MetricPoint, 0, 64)
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPoint(row pgx.Row) (*MetricPoint, error) {
	var p MetricPoint
	var tagsJSON []byte
	if err := row.Scan(&p.ID, &p.ProjectID, &p.Time, &p.Metric, &p.Value, &tagsJSON); err != nil {
		return nil, err
	}
	if len(tagsJSON) > 0 {
		_ = json.Unmarshal(tagsJSON, &p.Tags)
	}
	return &p, nil
}
