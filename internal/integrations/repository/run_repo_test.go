package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcpanel/gcpanel-backend/internal/integrations/domain"
)

func setupRunRepo(t *testing.T) (*RunRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRunRepository(client), mr
}

func TestRunRepository_CreateAndGet(t *testing.T) {
	repo, mr := setupRunRepo(t)
	ctx := context.Background()

	run := &domain.SyncRun{UserID: "user-1", Connector: "procore"}
	require.NoError(t, repo.Create(ctx, run))
	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, domain.StatusPending, run.Status)

	got, err := repo.GetByRunID(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, "procore", got.Connector)
	assert.Equal(t, "user-1", got.UserID)

	// Run data expires after the retention window.
	mr.FastForward(8 * 24 * time.Hour)
	_, err = repo.GetByRunID(ctx, run.RunID)
	require.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestRunRepository_GetMissing(t *testing.T) {
	repo, _ := setupRunRepo(t)

	_, err := repo.GetByRunID(context.Background(), "no-such-run")
	require.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestRunRepository_LatestCompleted(t *testing.T) {
	repo, _ := setupRunRepo(t)
	ctx := context.Background()

	t.Run("unknown connector", func(t *testing.T) {
		_, err := repo.LatestCompleted(ctx, "plangrid")
		require.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("indexed only on completion", func(t *testing.T) {
		run := &domain.SyncRun{UserID: "user-1", Connector: "plangrid"}
		require.NoError(t, repo.Create(ctx, run))

		run.Status = domain.StatusFailed
		require.NoError(t, repo.Update(ctx, run))
		_, err := repo.LatestCompleted(ctx, "plangrid")
		require.ErrorIs(t, err, domain.ErrRunNotFound)

		now := time.Now()
		run.Status = domain.StatusCompleted
		run.CompletedAt = &now
		run.Fetched = 12
		run.Imported = 12
		require.NoError(t, repo.Update(ctx, run))

		latest, err := repo.LatestCompleted(ctx, "plangrid")
		require.NoError(t, err)
		assert.Equal(t, run.RunID, latest.RunID)
		assert.Equal(t, 12, latest.Imported)
	})
}

func TestRunRepository_ListByUserID(t *testing.T) {
	repo, _ := setupRunRepo(t)
	ctx := context.Background()

	for _, connector := range []string{"procore", "fieldwire"} {
		require.NoError(t, repo.Create(ctx, &domain.SyncRun{UserID: "user-1", Connector: connector}))
	}
	require.NoError(t, repo.Create(ctx, &domain.SyncRun{UserID: "user-2", Connector: "procore"}))

	ids, err := repo.ListByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestRunRepository_Delete(t *testing.T) {
	repo, _ := setupRunRepo(t)
	ctx := context.Background()

	run := &domain.SyncRun{UserID: "user-1", Connector: "procore"}
	require.NoError(t, repo.Create(ctx, run))
	require.NoError(t, repo.Delete(ctx, run.RunID))

	_, err := repo.GetByRunID(ctx, run.RunID)
	require.ErrorIs(t, err, domain.ErrRunNotFound)

	ids, err := repo.ListByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
