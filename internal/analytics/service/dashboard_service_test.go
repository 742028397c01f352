package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bimrepo "github.com/gcpanel/gcpanel-backend/internal/bim/repository"
	bimservice "github.com/gcpanel/gcpanel-backend/internal/bim/service"
	docrepo "github.com/gcpanel/gcpanel-backend/internal/documents/repository"
	preconrepo "github.com/gcpanel/gcpanel-backend/internal/precon/repository"
	rfirepo "github.com/gcpanel/gcpanel-backend/internal/rfis/repository"
	rfiservice "github.com/gcpanel/gcpanel-backend/internal/rfis/service"
)

func setupCache(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestDashboardService_SnapshotCache(t *testing.T) {
	client, mr := setupCache(t)
	svc := NewDashboardService(nil, nil, nil, nil, client)
	ctx := context.Background()

	cached := Snapshot{
		ProjectID:    "proj-1",
		RFIsByStatus: map[string]int{"open": 3},
		BudgetAmount: 45500000,
		GeneratedAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, mr.Set("dash:project:proj-1", string(data)))

	t.Run("serves from cache without touching stores", func(t *testing.T) {
		// The backing services are nil; a cache miss would panic.
		snap, err := svc.Snapshot(ctx, "proj-1")
		require.NoError(t, err)
		assert.True(t, snap.Cached)
		assert.Equal(t, 3, snap.RFIsByStatus["open"])
		assert.InDelta(t, 45500000.0, snap.BudgetAmount, 0.01)
	})

	t.Run("invalidate drops the cached snapshot", func(t *testing.T) {
		svc.Invalidate(ctx, "proj-1")
		assert.False(t, mr.Exists("dash:project:proj-1"))
	})
}

func TestDashboardService_SnapshotBuild(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewDashboardService(
		rfiservice.NewRFIService(rfirepo.NewRFIRepository(db)),
		bimservice.NewClashService(nil, bimrepo.NewClashRepository(db), nil),
		docrepo.NewDocumentRepository(db),
		preconrepo.NewBudgetRepository(db),
		nil,
	)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM rfis`).
		WithArgs("proj-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("open", 2))
	mock.ExpectQuery(`SELECT submitted_at FROM rfis`).
		WithArgs("proj-1").
		WillReturnRows(sqlmock.NewRows([]string{"submitted_at"}).
			AddRow(time.Now().Add(-2 * 24 * time.Hour)).
			AddRow(time.Now().Add(-45 * 24 * time.Hour)))
	mock.ExpectQuery(`SELECT severity, COUNT\(\*\) FROM bim_clashes`).
		WithArgs("proj-1").
		WillReturnRows(sqlmock.NewRows([]string{"severity", "count"}).AddRow("critical", 1))
	mock.ExpectQuery(`SELECT category, COUNT\(\*\) FROM documents`).
		WithArgs("proj-1").
		WillReturnRows(sqlmock.NewRows([]string{"category", "count"}).AddRow("drawings", 4))
	mock.ExpectQuery(`SELECT COALESCE\(SUM`).
		WithArgs("proj-1").
		WillReturnRows(sqlmock.NewRows([]string{"budget", "committed", "actual"}).
			AddRow(45500000.0, 30000000.0, 12000000.0))

	snap, err := svc.Snapshot(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.False(t, snap.Cached)
	assert.Equal(t, 2, snap.RFIsByStatus["open"])
	assert.Equal(t, 1, snap.RFIAging[rfiservice.BucketWeek])
	assert.Equal(t, 1, snap.RFIAging[rfiservice.BucketStale])
	assert.Zero(t, snap.RFIAging[rfiservice.BucketFortnight])
	assert.Equal(t, 1, snap.OpenClashes["critical"])
	assert.Equal(t, 4, snap.DocsByCategory["drawings"])
	assert.InDelta(t, 33500000.0, snap.BudgetVariance, 0.01)
	require.NoError(t, mock.ExpectationsWereMet())
}
