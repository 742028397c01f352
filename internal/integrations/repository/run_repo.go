package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gcpanel/gcpanel-backend/internal/integrations/domain"
)

const (
	runKeyPrefix          = "sync:run:"        // Key for run data: sync:run:{run_id}
	userRunSetPrefix      = "sync:user:"       // Set of run IDs for a user: sync:user:{user_id}:runs
	connectorLatestPrefix = "sync:latest:"     // Latest completed run per connector: sync:latest:{connector}
	runEventChannelPrefix = "sync:events:"     // Pub/Sub channel for run events: sync:events:{run_id}
	runTTL                = 7 * 24 * time.Hour // TTL for run data (7 days)
)

// RunRepository handles Redis operations for sync runs
type RunRepository struct {
	client *redis.Client
}

// NewRunRepository creates a new RunRepository
func NewRunRepository(client *redis.Client) *RunRepository {
	return &RunRepository{client: client}
}

// Create stores a new sync run and indexes it for its user.
func (r *RunRepository) Create(ctx context.Context, run *domain.SyncRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if run.UpdatedAt.IsZero() {
		run.UpdatedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = domain.StatusPending
	}

	runData, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run data: %w", err)
	}

	// Use pipeline for atomic operations
	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.runKey(run.RunID), runData, runTTL)
	pipe.SAdd(ctx, r.userRunSetKey(run.UserID), run.RunID)
	pipe.Expire(ctx, r.userRunSetKey(run.UserID), runTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// GetByRunID retrieves a run by its ID.
func (r *RunRepository) GetByRunID(ctx context.Context, runID string) (*domain.SyncRun, error) {
	data, err := r.client.Get(ctx, r.runKey(runID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run domain.SyncRun
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run data: %w", err)
	}
	return &run, nil
}

// Update rewrites a run and publishes a progress event on the run's channel.
func (r *RunRepository) Update(ctx context.Context, run *domain.SyncRun) error {
	run.UpdatedAt = time.Now()

	runData, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run data: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.runKey(run.RunID), runData, runTTL)
	if run.Status == domain.StatusCompleted {
		pipe.Set(ctx, r.connectorLatestKey(run.Connector), run.RunID, runTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	if run.RunID != "" && run.Status != "" {
		if eventData, err := json.Marshal(run); err == nil {
			r.client.Publish(ctx, r.runEventChannel(run.RunID), eventData)
		}
	}
	return nil
}

// ListByUserID retrieves all run IDs for a user.
func (r *RunRepository) ListByUserID(ctx context.Context, userID string) ([]string, error) {
	runIDs, err := r.client.SMembers(ctx, r.userRunSetKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs for user: %w", err)
	}
	return runIDs, nil
}

// LatestCompleted returns the most recent completed run for a connector,
// or ErrRunNotFound when it never completed within the TTL window.
func (r *RunRepository) LatestCompleted(ctx context.Context, connector string) (*domain.SyncRun, error) {
	runID, err := r.client.Get(ctx, r.connectorLatestKey(connector)).Result()
	if err == redis.Nil {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run id: %w", err)
	}
	return r.GetByRunID(ctx, runID)
}

// Delete removes a run and its user index entry.
func (r *RunRepository) Delete(ctx context.Context, runID string) error {
	run, err := r.GetByRunID(ctx, runID)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.runKey(runID))
	pipe.SRem(ctx, r.userRunSetKey(run.UserID), runID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// Helper methods for key generation
func (r *RunRepository) runKey(runID string) string {
	return fmt.Sprintf("%s%s", runKeyPrefix, runID)
}

func (r *RunRepository) userRunSetKey(userID string) string {
	return fmt.Sprintf("%s%s:runs", userRunSetPrefix, userID)
}

func (r *RunRepository) connectorLatestKey(connector string) string {
	return fmt.Sprintf("%s%s", connectorLatestPrefix, connector)
}

func (r *RunRepository) runEventChannel(runID string) string {
	return fmt.Sprintf("%s%s", runEventChannelPrefix, runID)
}
